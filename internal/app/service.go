// Package service runs the fetch -> aggregate -> merge -> prune -> write
// pipeline and exposes its results to the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/leaguestats/internal/adapters/leaderboard"
	"github.com/okian/leaguestats/internal/adapters/repository"
	"github.com/okian/leaguestats/internal/domain/aggregate"
	"github.com/okian/leaguestats/internal/domain/model"
	"github.com/okian/leaguestats/internal/domain/retention"
	"github.com/okian/leaguestats/internal/domain/tier"
	"github.com/okian/leaguestats/pkg/logger"
	"github.com/okian/leaguestats/pkg/metrics"
)

const defaultOutputPath = "src/data/ranks.json"

// ErrRun marks a failed pipeline run.
var ErrRun = errors.New("run failed")

// Service runs the snapshot pipeline. Runs are serialized.
type Service struct {
	runMu sync.Mutex
	mu    sync.RWMutex

	fetcher    leaderboard.Fetcher
	store      repository.Store
	aggregator *aggregate.Aggregator
	retention  *retention.Filter
	now        func() time.Time
	textfile   string

	logger logger.Logger

	// Last run state
	runs     int
	failures int
	last     *model.RunResult
	lastErr  error
	lastAt   time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the leaderboard source.
func WithFetcher(f leaderboard.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithStore sets the snapshot store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithAggregator sets the rank aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithRetention sets the retention filter.
func WithRetention(f *retention.Filter) Option {
	return func(s *Service) {
		if f != nil {
			s.retention = f
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used for run bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetricsTextfile writes the metrics registry to path after each run.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) {
		s.textfile = path
	}
}

// New constructs a new Service with default collaborators.
func New(opts ...Option) *Service {
	s := &Service{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.fetcher == nil {
		s.fetcher = leaderboard.New()
	}
	if s.store == nil {
		s.store = repository.NewFileStore(defaultOutputPath)
	}
	if s.aggregator == nil {
		s.aggregator = aggregate.New()
	}
	if s.retention == nil {
		s.retention = retention.New()
	}
	return s
}

// Run executes the pipeline once. A fetch failure aborts the run before the
// store is touched.
func (s *Service) Run(ctx context.Context) (model.RunResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res := model.RunResult{RunID: uuid.NewString(), StartedAt: s.now()}
	log := s.logger.With(logger.String("run_id", res.RunID))
	log.Info(ctx, "run started")

	err := s.run(ctx, log, &res)
	res.Duration = s.now().Sub(res.StartedAt)
	s.finish(ctx, log, res, err)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrRun, res.RunID, err)
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, log logger.Logger, res *model.RunResult) error {
	players, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		return err
	}
	res.PlayersFetched = len(players)
	metrics.UpdatePlayersFetched(len(players))

	fresh := s.aggregator.Aggregate(players)
	res.TiersComputed = len(fresh)
	for _, t := range s.aggregator.Order() {
		snap := fresh[t]
		publishTier(snap)
		if snap.PlayerCount == 0 {
			log.Warn(ctx, "tier has no players", logger.String("tier", t.String()))
		}
	}

	stored, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	merged := stored.Append(fresh, s.aggregator.Order())
	kept, pruned := s.retention.Apply(merged)
	res.Pruned = pruned

	if err := s.store.Save(ctx, kept); err != nil {
		return err
	}
	res.Stored = len(kept)
	metrics.UpdateSnapshotsStored(len(kept))
	metrics.AddSnapshotsPruned(pruned)

	log.Debug(ctx, "snapshots merged",
		logger.Int("previous", len(stored)),
		logger.Int("fresh", len(fresh)),
		logger.Int("pruned", pruned),
		logger.Int("stored", len(kept)))
	return nil
}

func (s *Service) finish(ctx context.Context, log logger.Logger, res model.RunResult, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	finished := res.StartedAt.Add(res.Duration)
	metrics.RecordRun(outcome, res.Duration.Seconds(), float64(finished.Unix()))

	s.mu.Lock()
	s.runs++
	s.lastAt = finished
	s.lastErr = err
	if err != nil {
		s.failures++
	} else {
		s.last = &res
	}
	s.mu.Unlock()

	if err != nil {
		log.Error(ctx, "run failed", logger.Duration("duration", res.Duration), logger.Error(err))
	} else {
		log.Info(ctx, "run finished",
			logger.Int("players", res.PlayersFetched),
			logger.Int("stored", res.Stored),
			logger.Int("pruned", res.Pruned),
			logger.Duration("duration", res.Duration))
	}

	if s.textfile != "" {
		if werr := metrics.WriteTextfile(s.textfile); werr != nil {
			log.Warn(ctx, "failed to write metrics textfile", logger.String("path", s.textfile), logger.Error(werr))
		}
	}
}

func publishTier(s model.Snapshot) {
	averages := make(map[string]*float64, len(model.Metrics))
	for _, m := range model.Metrics {
		averages[m.String()] = s.Average(m)
	}
	metrics.UpdateTier(s.Name.String(), s.PlayerCount, s.RequireTR, averages)
}

// Collection returns the persisted snapshot collection.
func (s *Service) Collection(ctx context.Context) (model.Collection, error) {
	return s.store.Load(ctx)
}

// TierSnapshots returns the persisted snapshots of one tier, oldest first.
func (s *Service) TierSnapshots(ctx context.Context, label string) (model.Collection, error) {
	t, err := tier.Parse(label)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := c.ByTier(t)
	if out == nil {
		out = model.Collection{}
	}
	return out, nil
}

// LastRun returns the result of the last successful run, if any.
func (s *Service) LastRun() (model.RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return model.RunResult{}, false
	}
	return *s.last, true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"runs":           s.runs,
		"failures":       s.failures,
		"retentionDays":  s.retention.WindowDays(),
		"tiers":          len(s.aggregator.Table()),
		"lastSuccessful": nil,
	}
	if !s.lastAt.IsZero() {
		stats["lastRunAt"] = s.lastAt.UTC().Format(time.RFC3339)
	}
	if s.lastErr != nil {
		stats["lastError"] = s.lastErr.Error()
	}
	if s.last != nil {
		stats["lastSuccessful"] = *s.last
	}
	return stats
}
