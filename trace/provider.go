// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace wires samplers, processors and exporters into a tracing
// pipeline: the TracerProvider is the composition root owning the active
// sampler and the registered span processors.
package trace // import "github.com/signalfold/otelkit/trace"

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/sampler"
	"github.com/signalfold/otelkit/telemetry"
)

const defaultSpanAttributeLimit = 128

// TracerProvider creates Tracers and routes span lifecycle events to its
// processors. All configuration is fixed at construction.
type TracerProvider struct {
	sampler    sampler.Sampler
	processors []SpanProcessor
	resource   *telemetry.Resource
	idGen      IDGenerator
	logger     *zap.Logger
	attrLimit  int

	stopped  atomic.Bool
	stopOnce sync.Once
}

// ProviderOption configures a TracerProvider.
type ProviderOption func(*TracerProvider)

// WithSampler sets the head sampler; the default is
// ParentBased(AlwaysOn).
func WithSampler(s sampler.Sampler) ProviderOption {
	return func(tp *TracerProvider) {
		if s != nil {
			tp.sampler = s
		}
	}
}

// WithResource sets the resource stamped on every span.
func WithResource(r *telemetry.Resource) ProviderOption {
	return func(tp *TracerProvider) {
		if r != nil {
			tp.resource = r
		}
	}
}

// WithSpanProcessor registers a processor; processors are notified in
// registration order.
func WithSpanProcessor(p SpanProcessor) ProviderOption {
	return func(tp *TracerProvider) {
		if p != nil {
			tp.processors = append(tp.processors, p)
		}
	}
}

// WithIDGenerator replaces the random ID generator.
func WithIDGenerator(g IDGenerator) ProviderOption {
	return func(tp *TracerProvider) {
		if g != nil {
			tp.idGen = g
		}
	}
}

// WithSpanAttributeLimit caps attributes per span; extra attributes are
// dropped and counted on the snapshot.
func WithSpanAttributeLimit(n int) ProviderOption {
	return func(tp *TracerProvider) {
		if n > 0 {
			tp.attrLimit = n
		}
	}
}

// WithLogger injects the provider logger; default no-op.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(tp *TracerProvider) {
		if logger != nil {
			tp.logger = logger
		}
	}
}

// NewTracerProvider builds a provider from opts.
func NewTracerProvider(opts ...ProviderOption) *TracerProvider {
	tp := &TracerProvider{
		sampler:   sampler.NewParentBased(sampler.AlwaysOn()),
		resource:  telemetry.DefaultResource(),
		idGen:     newRandomIDGenerator(),
		logger:    zap.NewNop(),
		attrLimit: defaultSpanAttributeLimit,
	}
	for _, opt := range opts {
		opt(tp)
	}
	tp.logger.Debug("tracer provider configured",
		zap.String("sampler", tp.sampler.Description()),
		zap.Int("processors", len(tp.processors)))
	return tp
}

// Tracer returns a Tracer for the named instrumentation scope.
func (tp *TracerProvider) Tracer(name string, version ...string) *Tracer {
	scope := telemetry.Scope{Name: name}
	if len(version) > 0 {
		scope.Version = version[0]
	}
	return &Tracer{provider: tp, scope: scope}
}

// ForceFlush flushes every registered processor.
func (tp *TracerProvider) ForceFlush(ctx context.Context) error {
	var err error
	for _, p := range tp.processors {
		err = multierr.Append(err, p.ForceFlush(ctx))
	}
	return err
}

// Shutdown stops span creation and shuts down every registered processor in
// registration order. Idempotent; later calls return nil.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	var err error
	tp.stopOnce.Do(func() {
		tp.stopped.Store(true)
		for _, p := range tp.processors {
			err = multierr.Append(err, p.Shutdown(ctx))
		}
	})
	return err
}

// Tracer creates spans within one instrumentation scope.
type Tracer struct {
	provider *TracerProvider
	scope    telemetry.Scope
}

// SpanStartOption configures a span at start time.
type SpanStartOption func(*spanStart)

type spanStart struct {
	kind  telemetry.SpanKind
	attrs []attribute.KeyValue
	links []telemetry.Link
	ts    time.Time
}

// WithSpanKind sets the span kind; default internal.
func WithSpanKind(kind telemetry.SpanKind) SpanStartOption {
	return func(s *spanStart) { s.kind = kind }
}

// WithAttributes sets the initial span attributes.
func WithAttributes(kvs ...attribute.KeyValue) SpanStartOption {
	return func(s *spanStart) { s.attrs = append(s.attrs, kvs...) }
}

// WithLinks attaches links to the new span.
func WithLinks(links ...telemetry.Link) SpanStartOption {
	return func(s *spanStart) { s.links = append(s.links, links...) }
}

// WithTimestamp overrides the start time; for replaying recorded data.
func WithTimestamp(ts time.Time) SpanStartOption {
	return func(s *spanStart) { s.ts = ts }
}

// Start begins a span. The sampler runs first: a Drop decision yields a
// non-recording span that still propagates its context, so downstream
// services inherit a consistent decision. The returned context carries the
// new span context.
func (t *Tracer) Start(ctx context.Context, name string, opts ...SpanStartOption) (context.Context, *Span) {
	tp := t.provider
	start := spanStart{kind: telemetry.SpanKindInternal}
	for _, opt := range opts {
		opt(&start)
	}
	if start.ts.IsZero() {
		start.ts = time.Now()
	}

	parent := telemetry.SpanContextFromContext(ctx)
	var traceID telemetry.TraceID
	var spanID telemetry.SpanID
	if parent.IsValid() {
		traceID = parent.TraceID
		spanID = tp.idGen.NewSpanID(traceID)
	} else {
		traceID, spanID = tp.idGen.NewIDs()
	}

	if tp.stopped.Load() {
		sc := telemetry.SpanContext{TraceID: traceID, SpanID: spanID}
		return telemetry.ContextWithSpanContext(ctx, sc), newNonRecordingSpan(sc)
	}

	res := tp.sampler.ShouldSample(sampler.Parameters{
		ParentContext: ctx,
		TraceID:       traceID,
		Name:          name,
		Kind:          start.kind,
		Attributes:    start.attrs,
		Links:         start.links,
	})
	sc := telemetry.SpanContext{
		TraceID: traceID,
		SpanID:  spanID,
		Sampled: res.Decision == sampler.RecordAndSample,
	}
	if res.Decision == sampler.Drop {
		return telemetry.ContextWithSpanContext(ctx, sc), newNonRecordingSpan(sc)
	}

	s := &Span{
		provider:  tp,
		scope:     t.scope,
		sc:        sc,
		parent:    parent,
		name:      name,
		kind:      start.kind,
		startTime: start.ts,
		links:     start.links,
		recording: true,
	}
	s.addAttributes(start.attrs)
	s.addAttributes(res.Attributes)

	for _, p := range tp.processors {
		p.OnStart(ctx, s.snapshot())
	}
	return telemetry.ContextWithSpanContext(ctx, sc), s
}
