package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/leaguestats/internal/domain/tier"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEAGUESTATS_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file at path, or at $LEAGUESTATS_CONFIG when path is empty
//  3. env (prefix LEAGUESTATS_)
func Load(_ context.Context, path string) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LEAGUESTATS_OUTPUT_PATH -> output_path. Underscores are kept to match
	// the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.OutputPath) == "":
		return invalid("output_path must not be empty")
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.RetentionDays < 0:
		return invalid("retention_days must not be negative")
	case c.FetchMaxTries < 1:
		return invalid("fetch_max_tries must be at least 1")
	case c.HTTPTimeoutMS <= 0:
		return invalid("http_timeout_ms must be positive")
	case c.RunTimeoutMS <= 0:
		return invalid("run_timeout_ms must be positive")
	case c.FetchInitialBackoffMS <= 0 || c.FetchMaxBackoffMS < c.FetchInitialBackoffMS:
		return invalid("fetch backoff bounds must be positive and ordered")
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return invalid("log_format must be text or json")
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("api_base_url must be an absolute URL")
	}

	if _, err := tier.WithOverrides(c.Percentiles); err != nil {
		return fmt.Errorf("%w: percentiles: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TierTable returns the percentile table with configured overrides applied.
func (c *Config) TierTable() (tier.Table, error) {
	return tier.WithOverrides(c.Percentiles)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
