// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package processor // import "github.com/signalfold/otelkit/processor"

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxQueueSize is the default bound on items waiting to be
	// batched. Enqueues beyond it are dropped, never blocked.
	DefaultMaxQueueSize = 2048
	// DefaultScheduleDelay is the default interval between timer-driven
	// exports.
	DefaultScheduleDelay = 5 * time.Second
	// DefaultMaxExportBatchSize is the default cap on items per Export call.
	DefaultMaxExportBatchSize = 512
	// DefaultExportTimeout is the default deadline applied to each Export
	// call.
	DefaultExportTimeout = 30 * time.Second
)

// Config holds the batch pipeline knobs. All fields must be positive; the
// zero value is not usable, start from NewDefaultConfig.
type Config struct {
	// MaxQueueSize is the capacity of the enqueue buffer. When the buffer
	// is full the incoming item is dropped and counted.
	MaxQueueSize int `mapstructure:"max_queue_size"`

	// ScheduleDelay is how long a non-empty batch may wait before being
	// exported regardless of its size.
	ScheduleDelay time.Duration `mapstructure:"schedule_delay"`

	// MaxExportBatchSize caps the number of items handed to a single
	// Export call.
	MaxExportBatchSize int `mapstructure:"max_export_batch_size"`

	// ExportTimeout bounds each Export call; on expiry the batch is
	// treated as failed and discarded.
	ExportTimeout time.Duration `mapstructure:"export_timeout"`

	// Retry configures the optional processor-level retry of failed
	// exports. Disabled by default; exporters may also retry internally.
	Retry RetryConfig `mapstructure:"retry"`
}

// NewDefaultConfig returns the default pipeline configuration.
func NewDefaultConfig() Config {
	return Config{
		MaxQueueSize:       DefaultMaxQueueSize,
		ScheduleDelay:      DefaultScheduleDelay,
		MaxExportBatchSize: DefaultMaxExportBatchSize,
		ExportTimeout:      DefaultExportTimeout,
		Retry:              NewDefaultRetryConfig(),
	}
}

// Validate checks the configuration for construction-time errors.
func (cfg Config) Validate() error {
	if cfg.MaxQueueSize <= 0 {
		return fmt.Errorf("max_queue_size must be positive, got %d", cfg.MaxQueueSize)
	}
	if cfg.ScheduleDelay <= 0 {
		return fmt.Errorf("schedule_delay must be positive, got %v", cfg.ScheduleDelay)
	}
	if cfg.MaxExportBatchSize <= 0 {
		return fmt.Errorf("max_export_batch_size must be positive, got %d", cfg.MaxExportBatchSize)
	}
	if cfg.ExportTimeout <= 0 {
		return fmt.Errorf("export_timeout must be positive, got %v", cfg.ExportTimeout)
	}
	return cfg.Retry.Validate()
}

// RetryConfig controls the exponential backoff applied when the processor is
// configured to retry failed exports.
type RetryConfig struct {
	// Enabled turns processor-level retry on.
	Enabled bool `mapstructure:"enabled"`
	// InitialInterval is the wait after the first failure.
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	// MaxInterval caps the wait between consecutive retries.
	MaxInterval time.Duration `mapstructure:"max_interval"`
	// MaxElapsedTime bounds the total time spent on one batch including
	// retries; when exceeded the batch is discarded.
	MaxElapsedTime time.Duration `mapstructure:"max_elapsed_time"`
}

// NewDefaultRetryConfig returns the retry defaults (disabled).
func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:         false,
		InitialInterval: 5 * time.Second,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  time.Minute,
	}
}

// Validate checks the retry configuration.
func (cfg RetryConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.InitialInterval <= 0 || cfg.MaxInterval <= 0 || cfg.MaxElapsedTime <= 0 {
		return errors.New("retry intervals must be positive when retry is enabled")
	}
	return nil
}

// settings bundles the value-object Config with the injected dependencies
// options may supply.
type settings struct {
	cfg    Config
	logger *zap.Logger
}

func newSettings(opts []Option) settings {
	set := settings{
		cfg:    NewDefaultConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&set)
	}
	return set
}

// Option adjusts the pipeline configuration.
type Option func(*settings)

// WithConfig replaces the whole Config.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithMaxQueueSize sets the enqueue buffer capacity.
func WithMaxQueueSize(n int) Option {
	return func(s *settings) { s.cfg.MaxQueueSize = n }
}

// WithScheduleDelay sets the timer-driven export interval.
func WithScheduleDelay(d time.Duration) Option {
	return func(s *settings) { s.cfg.ScheduleDelay = d }
}

// WithMaxExportBatchSize sets the per-export item cap.
func WithMaxExportBatchSize(n int) Option {
	return func(s *settings) { s.cfg.MaxExportBatchSize = n }
}

// WithExportTimeout sets the per-export deadline.
func WithExportTimeout(d time.Duration) Option {
	return func(s *settings) { s.cfg.ExportTimeout = d }
}

// WithRetry enables processor-level retry with the given settings.
func WithRetry(rc RetryConfig) Option {
	return func(s *settings) { s.cfg.Retry = rc }
}

// WithLogger injects the logger used for drop and export-failure reporting.
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// LoggerFrom resolves the logger an option list would configure. The signal
// frontends share one option list between their wrapper and the pipeline and
// use this to log with the same sink.
func LoggerFrom(opts ...Option) *zap.Logger {
	return newSettings(opts).logger
}
