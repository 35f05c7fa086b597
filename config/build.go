// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package config // import "github.com/signalfold/otelkit/config"

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/exporter"
	"github.com/signalfold/otelkit/exporter/console"
	"github.com/signalfold/otelkit/exporter/otlphttp"
	"github.com/signalfold/otelkit/log"
	"github.com/signalfold/otelkit/metric"
	"github.com/signalfold/otelkit/processor"
	"github.com/signalfold/otelkit/sampler"
	"github.com/signalfold/otelkit/telemetry"
	"github.com/signalfold/otelkit/trace"
)

// Pipeline is the set of providers built from one Config. Shutdown flushes
// and stops all of them.
type Pipeline struct {
	Traces  *trace.TracerProvider
	Logs    *log.LoggerProvider
	Metrics *metric.MeterProvider

	closers []func()
}

// BuildOption adjusts pipeline construction.
type BuildOption func(*buildSettings)

type buildSettings struct {
	logger        *zap.Logger
	consoleWriter io.Writer
	producers     []metric.Producer
}

// WithBuildLogger injects the diagnostic logger shared by every component;
// default no-op.
func WithBuildLogger(logger *zap.Logger) BuildOption {
	return func(s *buildSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConsoleWriter redirects console exporter output; default os.Stdout.
func WithConsoleWriter(w io.Writer) BuildOption {
	return func(s *buildSettings) { s.consoleWriter = w }
}

// WithMetricProducer registers a producer with the built metric reader.
func WithMetricProducer(p metric.Producer) BuildOption {
	return func(s *buildSettings) {
		if p != nil {
			s.producers = append(s.producers, p)
		}
	}
}

// Build wires the configured exporters, batch pipelines, sampler and
// providers. cfg should come from Load or otherwise pass Validate.
func Build(cfg Config, opts ...BuildOption) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set := buildSettings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&set)
	}

	resAttrs := []attribute.KeyValue{
		attribute.String(string(telemetry.ServiceNameKey), cfg.Service.Name),
	}
	if cfg.Service.Version != "" {
		resAttrs = append(resAttrs, attribute.String(string(telemetry.ServiceVersionKey), cfg.Service.Version))
	}
	res := telemetry.NewResource(resAttrs...)

	spanExp, logExp, metricExp, err := buildExporters(cfg.Exporter, set)
	if err != nil {
		return nil, err
	}

	head, closeSampler, err := buildSampler(cfg.Sampler)
	if err != nil {
		return nil, err
	}

	pipeOpts := []processor.Option{
		processor.WithConfig(cfg.Batch),
		processor.WithLogger(set.logger),
	}

	spanProc, err := trace.NewBatchSpanProcessor(spanExp, pipeOpts...)
	if err != nil {
		return nil, err
	}
	recordProc, err := log.NewBatchRecordProcessor(logExp, pipeOpts...)
	if err != nil {
		return nil, err
	}
	reader, err := metric.NewPeriodicReader(metricExp,
		metric.WithInterval(cfg.Metrics.Interval),
		metric.WithCollectTimeout(cfg.Metrics.CollectTimeout),
		metric.WithPipelineOptions(pipeOpts...),
		metric.WithReaderLogger(set.logger),
	)
	if err != nil {
		return nil, err
	}

	mpOpts := []metric.ProviderOption{
		metric.WithResource(res),
		metric.WithReader(reader),
		metric.WithLogger(set.logger),
	}
	for _, p := range set.producers {
		mpOpts = append(mpOpts, metric.WithProducer(p))
	}
	mp, err := metric.NewMeterProvider(mpOpts...)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Traces: trace.NewTracerProvider(
			trace.WithResource(res),
			trace.WithSampler(head),
			trace.WithSpanProcessor(spanProc),
			trace.WithLogger(set.logger),
		),
		Logs: log.NewLoggerProvider(
			log.WithResource(res),
			log.WithRecordProcessor(recordProc),
			log.WithLogger(set.logger),
		),
		Metrics: mp,
	}
	if closeSampler != nil {
		p.closers = append(p.closers, closeSampler)
	}
	return p, nil
}

func buildExporters(cfg ExporterConfig, set buildSettings) (spanExp exporter.Exporter[telemetry.Span], logExp exporter.Exporter[telemetry.Record], metricExp exporter.Exporter[telemetry.Metrics], err error) {
	switch cfg.Kind {
	case ExporterConsole:
		var copts []console.Option
		if set.consoleWriter != nil {
			copts = append(copts, console.WithWriter(set.consoleWriter))
		}
		return console.NewSpanExporter(copts...), console.NewLogExporter(copts...), console.NewMetricExporter(copts...), nil
	case ExporterOTLPHTTP:
		oopts := []otlphttp.Option{
			otlphttp.WithConfig(cfg.OTLP),
			otlphttp.WithLogger(set.logger),
		}
		if spanExp, err = otlphttp.NewSpanExporter(oopts...); err != nil {
			return nil, nil, nil, err
		}
		if logExp, err = otlphttp.NewLogExporter(oopts...); err != nil {
			return nil, nil, nil, err
		}
		if metricExp, err = otlphttp.NewMetricExporter(oopts...); err != nil {
			return nil, nil, nil, err
		}
		return spanExp, logExp, metricExp, nil
	default:
		return nil, nil, nil, fmt.Errorf("config: unknown exporter kind %q", cfg.Kind)
	}
}

// buildSampler returns the configured head sampler and, for samplers owning
// background state, a closer.
func buildSampler(cfg SamplerConfig) (sampler.Sampler, func(), error) {
	var (
		head    sampler.Sampler
		closeFn func()
		err     error
	)
	switch cfg.Kind {
	case SamplerAlwaysOn:
		head = sampler.AlwaysOn()
	case SamplerAlwaysOff:
		head = sampler.AlwaysOff()
	case SamplerTraceIDRatio:
		head, err = sampler.NewTraceIDRatio(cfg.Ratio)
	case SamplerRateLimiting:
		var rl *sampler.RateLimiting
		rl, err = sampler.NewRateLimiting(cfg.MaxPerSecond, 0)
		if err == nil {
			head = rl
			closeFn = rl.Close
		}
	default:
		err = fmt.Errorf("config: unknown sampler kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, nil, err
	}
	if !cfg.NoParent {
		head = sampler.NewParentBased(head)
	}
	return head, closeFn, nil
}

// Shutdown stops the providers in signal order and releases sampler state.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	var err error
	if p.Traces != nil {
		err = multierr.Append(err, p.Traces.Shutdown(ctx))
	}
	if p.Logs != nil {
		err = multierr.Append(err, p.Logs.Shutdown(ctx))
	}
	if p.Metrics != nil {
		err = multierr.Append(err, p.Metrics.Shutdown(ctx))
	}
	for _, c := range p.closers {
		c()
	}
	return err
}

// ForceFlush flushes every provider.
func (p *Pipeline) ForceFlush(ctx context.Context) error {
	var err error
	if p.Traces != nil {
		err = multierr.Append(err, p.Traces.ForceFlush(ctx))
	}
	if p.Logs != nil {
		err = multierr.Append(err, p.Logs.ForceFlush(ctx))
	}
	if p.Metrics != nil {
		err = multierr.Append(err, p.Metrics.ForceFlush(ctx))
	}
	return err
}
