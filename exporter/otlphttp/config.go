// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package otlphttp // import "github.com/signalfold/otelkit/exporter/otlphttp"

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second

	tracesPath  = "/v1/traces"
	metricsPath = "/v1/metrics"
	logsPath    = "/v1/logs"
)

// Config holds the OTLP/HTTP client settings.
type Config struct {
	// Endpoint is the collector base URL, e.g. "http://localhost:4318".
	// Signal paths (/v1/traces, /v1/metrics, /v1/logs) are appended.
	Endpoint string `mapstructure:"endpoint"`

	// Headers are added to every request.
	Headers map[string]string `mapstructure:"headers"`

	// Timeout bounds each HTTP attempt, independent of the pipeline's
	// export timeout and of the retry budget.
	Timeout time.Duration `mapstructure:"timeout"`

	// DisableCompression turns off gzip request bodies.
	DisableCompression bool `mapstructure:"disable_compression"`

	// Retry configures the client's internal handling of transient
	// failures (429/503 throttling, 5xx). Enabled by default.
	Retry RetryConfig `mapstructure:"retry"`
}

// RetryConfig is the exponential backoff budget for transient failures.
type RetryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

// NewDefaultConfig returns the client defaults.
func NewDefaultConfig() Config {
	return Config{
		Endpoint: "http://localhost:4318",
		Timeout:  defaultTimeout,
		Retry: RetryConfig{
			Enabled:         true,
			InitialInterval: 5 * time.Second,
			MaxInterval:     30 * time.Second,
			MaxElapsedTime:  time.Minute,
		},
	}
}

// Validate checks the configuration at construction time.
func (cfg Config) Validate() error {
	if cfg.Endpoint == "" {
		return errors.New("otlphttp: endpoint must not be empty")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("otlphttp: invalid endpoint %q: %w", cfg.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("otlphttp: endpoint scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("otlphttp: timeout must be positive, got %v", cfg.Timeout)
	}
	if cfg.Retry.Enabled {
		if cfg.Retry.InitialInterval <= 0 || cfg.Retry.MaxInterval <= 0 || cfg.Retry.MaxElapsedTime <= 0 {
			return errors.New("otlphttp: retry intervals must be positive when retry is enabled")
		}
	}
	return nil
}

// Option adjusts the client settings.
type Option func(*settings)

type settings struct {
	cfg    Config
	logger *zap.Logger
}

// WithConfig replaces the whole Config.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithEndpoint sets the collector base URL.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) { s.cfg.Endpoint = endpoint }
}

// WithHeaders sets extra request headers.
func WithHeaders(h map[string]string) Option {
	return func(s *settings) { s.cfg.Headers = h }
}

// WithTimeout sets the per-attempt bound.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.cfg.Timeout = d }
}

// WithRetry sets the transient-failure retry budget.
func WithRetry(rc RetryConfig) Option {
	return func(s *settings) { s.cfg.Retry = rc }
}

// WithLogger injects the client logger; default no-op.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}
