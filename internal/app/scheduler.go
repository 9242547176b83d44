package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/leaguestats/internal/domain/model"
	"github.com/okian/leaguestats/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

// ErrSchedule is returned for an unparsable cron spec.
var ErrSchedule = errors.New("invalid schedule")

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (model.RunResult, error)
}

// SchedulerOption applies a configuration option to the Scheduler.
type SchedulerOption func(*Scheduler)

// WithRunTimeout bounds each scheduled run.
func WithRunTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRunOnStart triggers a run immediately on Start.
func WithRunOnStart(enabled bool) SchedulerOption {
	return func(s *Scheduler) {
		s.runOnStart = enabled
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l logger.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the time zone the spec is evaluated in.
func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// Scheduler runs a Runner on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	spec       string
	runner     Runner
	timeout    time.Duration
	runOnStart bool
	location   *time.Location
	logger     logger.Logger

	cron *cron.Cron
	wg   sync.WaitGroup
}

// specParser accepts standard five-field specs, an optional leading seconds
// field, and descriptors such as @daily or @every 6h.
var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewScheduler validates spec and builds a Scheduler.
func NewScheduler(runner Runner, spec string, opts ...SchedulerOption) (*Scheduler, error) {
	if _, err := specParser.Parse(spec); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrSchedule, spec, err)
	}
	s := &Scheduler{
		spec:     spec,
		runner:   runner,
		timeout:  defaultRunTimeout,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("scheduler")
	}
	return s, nil
}

// Start registers the job and starts the cron loop. Runs derive from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	cl := cronLogger{ctx: ctx, log: s.logger}
	s.cron = cron.New(
		cron.WithParser(specParser),
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	job := cron.FuncJob(func() { s.runOnce(ctx) })
	if _, err := s.cron.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrSchedule, s.spec, err)
	}
	s.cron.Start()

	entries := s.cron.Entries()
	if len(entries) > 0 {
		s.logger.Info(ctx, "scheduler started",
			logger.String("schedule", s.spec),
			logger.Time("next", entries[0].Next))
	}

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runOnce(ctx)
		}()
	}
	return nil
}

// Stop stops the cron loop and waits for in-flight runs.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()
}

func (s *Scheduler) runOnce(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	// Failures are logged by the runner; the next tick retries.
	_, _ = s.runner.Run(ctx)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	ctx context.Context //nolint:containedctx // cron.Logger has no context parameter
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(c.ctx, "cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(c.ctx, "cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
