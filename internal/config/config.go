// Package config defines process configuration and its defaults.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address of the serve command.
	Addr string `koanf:"addr"`

	// APIBaseURL is the TETR.IO API root.
	APIBaseURL string `koanf:"api_base_url"`

	// UserAgent is sent with every upstream request.
	UserAgent string `koanf:"user_agent"`

	// HTTPTimeoutMS bounds a single upstream request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// FetchMaxTries caps upstream attempts per run; backoff bounds in ms.
	FetchMaxTries         int `koanf:"fetch_max_tries"`
	FetchInitialBackoffMS int `koanf:"fetch_initial_backoff_ms"`
	FetchMaxBackoffMS     int `koanf:"fetch_max_backoff_ms"`

	// OutputPath is the JSON file holding the snapshot collection.
	OutputPath string `koanf:"output_path"`

	// RetentionDays is how many whole days a snapshot is kept.
	RetentionDays int `koanf:"retention_days"`

	// Schedule is the cron spec used by the serve command. A leading
	// seconds field is optional.
	Schedule string `koanf:"schedule"`

	// RunOnStart triggers a run as soon as the serve command starts.
	RunOnStart bool `koanf:"run_on_start"`

	// RunTimeoutMS bounds one scheduled run.
	RunTimeoutMS int `koanf:"run_timeout_ms"`

	// MetricsTextfile, when set, receives the metrics after each run of the
	// run command (node_exporter textfile collector).
	MetricsTextfile string `koanf:"metrics_textfile"`

	// Percentiles overrides tier percentiles, e.g. {"x": 1, "d+": 97.5}.
	Percentiles map[string]float64 `koanf:"percentiles"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9090",
		APIBaseURL:            "https://ch.tetr.io/api",
		UserAgent:             "leaguestats/1.0",
		HTTPTimeoutMS:         60_000,
		FetchMaxTries:         4,
		FetchInitialBackoffMS: 2_000,
		FetchMaxBackoffMS:     30_000,
		OutputPath:            "src/data/ranks.json",
		RetentionDays:         7,
		Schedule:              "0 0 * * *",
		RunOnStart:            false,
		RunTimeoutMS:          300_000,
	}
}

// HTTPTimeout returns HTTPTimeoutMS as a duration.
func (c *Config) HTTPTimeout() time.Duration { return ms(c.HTTPTimeoutMS) }

// FetchInitialBackoff returns FetchInitialBackoffMS as a duration.
func (c *Config) FetchInitialBackoff() time.Duration { return ms(c.FetchInitialBackoffMS) }

// FetchMaxBackoff returns FetchMaxBackoffMS as a duration.
func (c *Config) FetchMaxBackoff() time.Duration { return ms(c.FetchMaxBackoffMS) }

// RunTimeout returns RunTimeoutMS as a duration.
func (c *Config) RunTimeout() time.Duration { return ms(c.RunTimeoutMS) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
