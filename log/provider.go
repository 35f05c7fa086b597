// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package log wires the log signal pipeline: Loggers emit records, the
// LoggerProvider stamps resource and scope and fans the records out to its
// processors.
package log // import "github.com/signalfold/otelkit/log"

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/signalfold/otelkit/telemetry"
)

// LoggerProvider creates Loggers and routes emitted records to its
// processors.
type LoggerProvider struct {
	processors []RecordProcessor
	resource   *telemetry.Resource
	logger     *zap.Logger

	stopped  atomic.Bool
	stopOnce sync.Once
}

// ProviderOption configures a LoggerProvider.
type ProviderOption func(*LoggerProvider)

// WithResource sets the resource stamped on every record.
func WithResource(r *telemetry.Resource) ProviderOption {
	return func(lp *LoggerProvider) {
		if r != nil {
			lp.resource = r
		}
	}
}

// WithRecordProcessor registers a processor; processors are notified in
// registration order.
func WithRecordProcessor(p RecordProcessor) ProviderOption {
	return func(lp *LoggerProvider) {
		if p != nil {
			lp.processors = append(lp.processors, p)
		}
	}
}

// WithLogger injects the provider's own diagnostic logger; default no-op.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(lp *LoggerProvider) {
		if logger != nil {
			lp.logger = logger
		}
	}
}

// NewLoggerProvider builds a provider from opts.
func NewLoggerProvider(opts ...ProviderOption) *LoggerProvider {
	lp := &LoggerProvider{
		resource: telemetry.DefaultResource(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(lp)
	}
	return lp
}

// Logger returns a Logger for the named instrumentation scope.
func (lp *LoggerProvider) Logger(name string, version ...string) *Logger {
	scope := telemetry.Scope{Name: name}
	if len(version) > 0 {
		scope.Version = version[0]
	}
	return &Logger{provider: lp, scope: scope}
}

// ForceFlush flushes every registered processor.
func (lp *LoggerProvider) ForceFlush(ctx context.Context) error {
	var err error
	for _, p := range lp.processors {
		err = multierr.Append(err, p.ForceFlush(ctx))
	}
	return err
}

// Shutdown stops record emission and shuts down the processors in
// registration order. Idempotent.
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	var err error
	lp.stopOnce.Do(func() {
		lp.stopped.Store(true)
		for _, p := range lp.processors {
			err = multierr.Append(err, p.Shutdown(ctx))
		}
	})
	return err
}

// Logger emits records within one instrumentation scope.
type Logger struct {
	provider *LoggerProvider
	scope    telemetry.Scope
}

// Emit freezes r, fills in defaults (observed timestamp, resource, scope,
// trace correlation from ctx) and fans it out to the processors. After
// provider shutdown it is a no-op.
func (l *Logger) Emit(ctx context.Context, r telemetry.Record) {
	lp := l.provider
	if lp.stopped.Load() {
		return
	}
	now := time.Now()
	if r.ObservedTimestamp.IsZero() {
		r.ObservedTimestamp = now
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = r.ObservedTimestamp
	}
	r.Resource = lp.resource
	r.Scope = l.scope
	if sc := telemetry.SpanContextFromContext(ctx); sc.IsValid() {
		r.TraceID = sc.TraceID
		r.SpanID = sc.SpanID
	}
	for _, p := range lp.processors {
		p.OnEmit(ctx, r)
	}
}
