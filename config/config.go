// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads SDK configuration from a YAML file with environment
// overrides and builds the configured pipelines.
package config // import "github.com/signalfold/otelkit/config"

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mitchellh/mapstructure"

	"github.com/signalfold/otelkit/exporter/otlphttp"
	"github.com/signalfold/otelkit/metric"
	"github.com/signalfold/otelkit/processor"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: OTELKIT_BATCH__MAX_QUEUE_SIZE overrides
// batch.max_queue_size.
const EnvPrefix = "OTELKIT_"

// Exporter kinds accepted by the "exporter.kind" key.
const (
	ExporterConsole  = "console"
	ExporterOTLPHTTP = "otlphttp"
)

// Sampler kinds accepted by the "sampler.kind" key.
const (
	SamplerAlwaysOn      = "always_on"
	SamplerAlwaysOff     = "always_off"
	SamplerTraceIDRatio  = "trace_id_ratio"
	SamplerRateLimiting  = "rate_limiting"
)

// Config is the file-level SDK configuration.
type Config struct {
	Service  ServiceConfig   `mapstructure:"service"`
	Exporter ExporterConfig  `mapstructure:"exporter"`
	Batch    processor.Config `mapstructure:"batch"`
	Sampler  SamplerConfig   `mapstructure:"sampler"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

// ServiceConfig names the instrumented service.
type ServiceConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ExporterConfig selects and configures the exporter backing all three
// signals.
type ExporterConfig struct {
	Kind string          `mapstructure:"kind"`
	OTLP otlphttp.Config `mapstructure:"otlp"`
}

// SamplerConfig selects the head sampler. The selected sampler is wrapped
// in ParentBased unless ParentBased is disabled.
type SamplerConfig struct {
	Kind         string  `mapstructure:"kind"`
	Ratio        float64 `mapstructure:"ratio"`
	MaxPerSecond float64 `mapstructure:"max_per_second"`
	// NoParent disables the ParentBased wrapper, applying the selected
	// sampler to child spans as well.
	NoParent bool `mapstructure:"no_parent"`
}

// MetricsConfig configures the periodic metric reader.
type MetricsConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	CollectTimeout time.Duration `mapstructure:"collect_timeout"`
}

// NewDefault returns the configuration used when keys are absent.
func NewDefault() Config {
	return Config{
		Service: ServiceConfig{Name: "unknown_service"},
		Exporter: ExporterConfig{
			Kind: ExporterConsole,
			OTLP: otlphttp.NewDefaultConfig(),
		},
		Batch: processor.NewDefaultConfig(),
		Sampler: SamplerConfig{
			Kind:  SamplerAlwaysOn,
			Ratio: 1,
		},
		Metrics: MetricsConfig{
			Interval:       metric.DefaultCollectInterval,
			CollectTimeout: metric.DefaultCollectTimeout,
		},
	}
}

// Load reads path (YAML) and applies OTELKIT_ environment overrides on top
// of the defaults. The returned configuration is validated.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: read environment: %w", err)
	}

	cfg := NewDefault()
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	})
	if err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps OTELKIT_BATCH__MAX_QUEUE_SIZE to batch.max_queue_size.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks the configuration for construction-time errors.
func (cfg Config) Validate() error {
	if cfg.Service.Name == "" {
		return fmt.Errorf("config: service.name must not be empty")
	}
	switch cfg.Exporter.Kind {
	case ExporterConsole:
	case ExporterOTLPHTTP:
		if err := cfg.Exporter.OTLP.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: unknown exporter kind %q", cfg.Exporter.Kind)
	}
	if err := cfg.Batch.Validate(); err != nil {
		return fmt.Errorf("config: batch: %w", err)
	}
	switch cfg.Sampler.Kind {
	case SamplerAlwaysOn, SamplerAlwaysOff:
	case SamplerTraceIDRatio:
		if cfg.Sampler.Ratio < 0 || cfg.Sampler.Ratio > 1 {
			return fmt.Errorf("config: sampler.ratio %v outside [0, 1]", cfg.Sampler.Ratio)
		}
	case SamplerRateLimiting:
		if cfg.Sampler.MaxPerSecond <= 0 {
			return fmt.Errorf("config: sampler.max_per_second must be positive, got %v", cfg.Sampler.MaxPerSecond)
		}
	default:
		return fmt.Errorf("config: unknown sampler kind %q", cfg.Sampler.Kind)
	}
	if cfg.Metrics.Interval <= 0 || cfg.Metrics.CollectTimeout <= 0 {
		return fmt.Errorf("config: metrics intervals must be positive")
	}
	return nil
}
