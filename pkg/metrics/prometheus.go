package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager owns the Prometheus collectors of the job.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline
	runs                *prometheus.CounterVec
	runDuration         prometheus.Histogram
	lastRunTimestamp    prometheus.Gauge
	fetchAttempts       *prometheus.CounterVec
	playersFetched      prometheus.Gauge
	snapshotsStored     prometheus.Gauge
	snapshotsPruned     prometheus.Counter
	snapshotsUnreadable prometheus.Counter

	// Per tier, from the latest run
	tierPlayers   *prometheus.GaugeVec
	tierRequireTR *prometheus.GaugeVec
	tierAverage   *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "leaguestats",
		subsystem:        "ranks",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Total number of pipeline runs by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Duration of pipeline runs in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.lastRunTimestamp = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_timestamp_seconds",
		Help:        "Unix time of the last successful run",
		ConstLabels: m.constLabels,
	})

	m.fetchAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_attempts_total",
		Help:        "Leaderboard fetch attempts by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.playersFetched = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "players_fetched",
		Help:        "Number of ranked players returned by the last fetch",
		ConstLabels: m.constLabels,
	})

	m.snapshotsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshots_stored",
		Help:        "Number of snapshots persisted by the last run",
		ConstLabels: m.constLabels,
	})

	m.snapshotsPruned = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshots_pruned_total",
		Help:        "Snapshots dropped by the retention window",
		ConstLabels: m.constLabels,
	})

	m.snapshotsUnreadable = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshots_unreadable_total",
		Help:        "Stored snapshots skipped because they could not be decoded",
		ConstLabels: m.constLabels,
	})

	m.tierPlayers = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tier_players",
		Help:        "Players in each tier at the last run",
		ConstLabels: m.constLabels,
	}, []string{"tier"})

	m.tierRequireTR = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tier_required_rating",
		Help:        "Rating at each tier's percentile boundary",
		ConstLabels: m.constLabels,
	}, []string{"tier"})

	m.tierAverage = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tier_average",
		Help:        "Average of a skill metric across each tier",
		ConstLabels: m.constLabels,
	}, []string{"tier", "metric"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordRun records a finished run.
func (m *Manager) RecordRun(outcome string, seconds float64, finishedUnix float64) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(seconds)
	if outcome == OutcomeSuccess {
		m.lastRunTimestamp.Set(finishedUnix)
	}
}

// RecordFetchAttempt counts one upstream call.
func (m *Manager) RecordFetchAttempt(outcome string) {
	m.fetchAttempts.WithLabelValues(outcome).Inc()
}

// UpdatePlayersFetched sets the size of the last fetched leaderboard.
func (m *Manager) UpdatePlayersFetched(n int) { m.playersFetched.Set(float64(n)) }

// UpdateSnapshotsStored sets the size of the persisted collection.
func (m *Manager) UpdateSnapshotsStored(n int) { m.snapshotsStored.Set(float64(n)) }

// AddSnapshotsPruned adds to the pruned counter.
func (m *Manager) AddSnapshotsPruned(n int) { m.snapshotsPruned.Add(float64(n)) }

// AddSnapshotsUnreadable adds to the unreadable counter.
func (m *Manager) AddSnapshotsUnreadable(n int) { m.snapshotsUnreadable.Add(float64(n)) }

// UpdateTier publishes the latest stats of a tier. Nil values remove the
// corresponding series so absent data is not reported as zero.
func (m *Manager) UpdateTier(tier string, players int, requireTR *float64, averages map[string]*float64) {
	m.tierPlayers.WithLabelValues(tier).Set(float64(players))
	if requireTR != nil {
		m.tierRequireTR.WithLabelValues(tier).Set(*requireTR)
	} else {
		m.tierRequireTR.DeleteLabelValues(tier)
	}
	for metric, v := range averages {
		if v != nil {
			m.tierAverage.WithLabelValues(tier, metric).Set(*v)
		} else {
			m.tierAverage.DeleteLabelValues(tier, metric)
		}
	}
}

// RecordHTTPRequest records an HTTP request and its duration in milliseconds.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Package-level helpers for the global manager.

// RecordRun records a finished run on the global manager.
func RecordRun(outcome string, seconds, finishedUnix float64) {
	globalManager.RecordRun(outcome, seconds, finishedUnix)
}

// RecordFetchAttempt counts one upstream call on the global manager.
func RecordFetchAttempt(outcome string) { globalManager.RecordFetchAttempt(outcome) }

// UpdatePlayersFetched sets the fetched player gauge.
func UpdatePlayersFetched(n int) { globalManager.UpdatePlayersFetched(n) }

// UpdateSnapshotsStored sets the stored snapshot gauge.
func UpdateSnapshotsStored(n int) { globalManager.UpdateSnapshotsStored(n) }

// AddSnapshotsPruned adds to the pruned counter.
func AddSnapshotsPruned(n int) { globalManager.AddSnapshotsPruned(n) }

// AddSnapshotsUnreadable adds to the unreadable counter.
func AddSnapshotsUnreadable(n int) { globalManager.AddSnapshotsUnreadable(n) }

// UpdateTier publishes tier stats on the global manager.
func UpdateTier(tier string, players int, requireTR *float64, averages map[string]*float64) {
	globalManager.UpdateTier(tier, players, requireTR, averages)
}

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the registry in the text exposition format to path,
// for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrTextfile, err)
	}
	return nil
}
