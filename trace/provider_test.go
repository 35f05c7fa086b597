// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package trace_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/internal/otelkittest"
	"github.com/signalfold/otelkit/processor"
	"github.com/signalfold/otelkit/sampler"
	"github.com/signalfold/otelkit/telemetry"
	"github.com/signalfold/otelkit/trace"
)

// recordingProcessor counts lifecycle events and keeps the snapshots.
type recordingProcessor struct {
	mu       sync.Mutex
	started  []telemetry.Span
	ended    []telemetry.Span
	renamed  []string
	flushes  int
	shutdown int

	flushErr error
	shutErr  error
}

func (p *recordingProcessor) OnStart(_ context.Context, s telemetry.Span) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, s)
}

func (p *recordingProcessor) OnEnd(s telemetry.Span) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, s)
}

func (p *recordingProcessor) OnSetName(_ telemetry.Span, newName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renamed = append(p.renamed, newName)
}

func (p *recordingProcessor) ForceFlush(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushes++
	return p.flushErr
}

func (p *recordingProcessor) Shutdown(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown++
	return p.shutErr
}

func (p *recordingProcessor) endedSpans() []telemetry.Span {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]telemetry.Span, len(p.ended))
	copy(out, p.ended)
	return out
}

func TestSpanLifecycle(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(
		trace.WithSpanProcessor(rec),
		trace.WithResource(telemetry.NewResource(attribute.String("service.name", "shop"))),
	)
	tracer := tp.Tracer("orders", "1.2.0")

	ctx, span := tracer.Start(context.Background(), "GET /orders",
		trace.WithSpanKind(telemetry.SpanKindServer),
		trace.WithAttributes(attribute.Int("http.status_code", 200)),
	)
	require.True(t, span.IsRecording())
	sc := span.SpanContext()
	require.True(t, sc.IsValid())
	assert.True(t, sc.Sampled)
	assert.Equal(t, sc, telemetry.SpanContextFromContext(ctx))

	span.SetStatus(telemetry.StatusOK, "done")
	span.End()

	require.Len(t, rec.started, 1)
	ended := rec.endedSpans()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "GET /orders", got.Name)
	assert.Equal(t, telemetry.SpanKindServer, got.Kind)
	assert.Equal(t, telemetry.Scope{Name: "orders", Version: "1.2.0"}, got.Scope)
	assert.Equal(t, telemetry.Status{Code: telemetry.StatusOK, Description: "done"}, got.Status)
	assert.True(t, got.Attributes.HasValue("http.status_code"))
	assert.True(t, got.Resource.Attributes().HasValue("service.name"))
	assert.False(t, got.EndTime.IsZero())
	assert.False(t, span.IsRecording())
}

func TestChildSpanInheritsTraceID(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "parent")
	_, child := tracer.Start(ctx, "child")

	assert.Equal(t, parent.SpanContext().TraceID, child.SpanContext().TraceID)
	assert.NotEqual(t, parent.SpanContext().SpanID, child.SpanContext().SpanID)

	child.End()
	parent.End()
	ended := rec.endedSpans()
	require.Len(t, ended, 2)
	assert.Equal(t, parent.SpanContext(), ended[0].Parent)
	assert.False(t, ended[1].Parent.IsValid())
}

func TestDroppedSpanIsNonRecordingButPropagates(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(
		trace.WithSampler(sampler.AlwaysOff()),
		trace.WithSpanProcessor(rec),
	)
	tracer := tp.Tracer("test")

	ctx, span := tracer.Start(context.Background(), "dropped")
	assert.False(t, span.IsRecording())

	// The decision still propagates downstream.
	sc := telemetry.SpanContextFromContext(ctx)
	assert.True(t, sc.IsValid())
	assert.False(t, sc.Sampled)

	span.SetAttributes(attribute.String("ignored", "x"))
	span.End()
	assert.Empty(t, rec.started)
	assert.Empty(t, rec.endedSpans())
}

func TestRecordOnlySpanReachesProcessorsUnsampled(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(
		trace.WithSampler(otelkittest.NewSpySampler(sampler.RecordOnly)),
		trace.WithSpanProcessor(rec),
	)
	_, span := tp.Tracer("test").Start(context.Background(), "record-only")

	require.True(t, span.IsRecording())
	assert.False(t, span.SpanContext().Sampled)
	span.End()
	ended := rec.endedSpans()
	require.Len(t, ended, 1)
	assert.False(t, ended[0].SpanContext.Sampled)
}

func TestSamplerAttributesMergedIntoSpan(t *testing.T) {
	spy := otelkittest.NewSpySampler(sampler.RecordAndSample)
	spy.Result.Attributes = []attribute.KeyValue{attribute.String("sampler.kind", "spy")}
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(
		trace.WithSampler(spy),
		trace.WithSpanProcessor(rec),
	)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.End()

	ended := rec.endedSpans()
	require.Len(t, ended, 1)
	v, ok := ended[0].Attributes.Value("sampler.kind")
	require.True(t, ok)
	assert.Equal(t, "spy", v.AsString())
}

func TestSpanAttributeLimit(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(
		trace.WithSpanProcessor(rec),
		trace.WithSpanAttributeLimit(2),
	)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.Int("a", 1),
		attribute.Int("b", 2),
		attribute.Int("c", 3),
		attribute.Int("d", 4),
	)
	span.End()

	ended := rec.endedSpans()
	require.Len(t, ended, 1)
	assert.Equal(t, 2, ended[0].Attributes.Len())
	assert.Equal(t, 2, ended[0].DroppedAttributes)
}

func TestSetNameNotifiesProcessors(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))

	_, span := tp.Tracer("test").Start(context.Background(), "old")
	span.SetName("new")
	span.End()

	assert.Equal(t, []string{"new"}, rec.renamed)
	ended := rec.endedSpans()
	require.Len(t, ended, 1)
	assert.Equal(t, "new", ended[0].Name)
}

func TestEndIsIdempotentAndFreezes(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	end := time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC)
	span.EndWithTimestamp(end)
	span.End()
	span.SetAttributes(attribute.String("late", "x"))
	span.SetStatus(telemetry.StatusError, "late")
	span.SetName("late")

	ended := rec.endedSpans()
	require.Len(t, ended, 1)
	assert.Equal(t, end, ended[0].EndTime)
	assert.Equal(t, "op", ended[0].Name)
	assert.False(t, ended[0].Attributes.HasValue("late"))
	assert.Equal(t, telemetry.StatusUnset, ended[0].Status.Code)
}

func TestSpanLinks(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))

	other := telemetry.SpanContext{TraceID: telemetry.TraceID{9}, SpanID: telemetry.SpanID{9}}
	_, span := tp.Tracer("test").Start(context.Background(), "op",
		trace.WithLinks(telemetry.Link{SpanContext: other}),
	)
	span.AddLink(telemetry.Link{SpanContext: other})
	span.End()

	ended := rec.endedSpans()
	require.Len(t, ended, 1)
	assert.Len(t, ended[0].Links, 2)
}

func TestProviderForceFlushAggregatesErrors(t *testing.T) {
	failing := &recordingProcessor{flushErr: errors.New("flush failed")}
	healthy := &recordingProcessor{}
	tp := trace.NewTracerProvider(
		trace.WithSpanProcessor(failing),
		trace.WithSpanProcessor(healthy),
	)

	err := tp.ForceFlush(context.Background())
	require.Error(t, err)
	// Both processors were flushed despite the failure.
	assert.Equal(t, 1, failing.flushes)
	assert.Equal(t, 1, healthy.flushes)
}

func TestProviderShutdown(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	tracer := tp.Tracer("test")

	require.NoError(t, tp.Shutdown(context.Background()))
	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Equal(t, 1, rec.shutdown)

	// Spans started after shutdown are non-recording but keep propagating.
	ctx, span := tracer.Start(context.Background(), "late")
	assert.False(t, span.IsRecording())
	assert.True(t, telemetry.SpanContextFromContext(ctx).IsValid())
	span.End()
	assert.Empty(t, rec.endedSpans())
}

func TestBatchProcessorExportsOnlySampledSpans(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[telemetry.Span]()
	proc, err := trace.NewBatchSpanProcessor(exp, processor.WithScheduleDelay(time.Hour))
	require.NoError(t, err)

	ratio, err := sampler.NewTraceIDRatio(0.5)
	require.NoError(t, err)
	tp := trace.NewTracerProvider(
		trace.WithSampler(ratio),
		trace.WithSpanProcessor(proc),
	)
	tracer := tp.Tracer("test")

	sampled := 0
	for i := 0; i < 200; i++ {
		_, span := tracer.Start(context.Background(), "op")
		if span.SpanContext().Sampled {
			sampled++
		}
		span.End()
	}
	require.NoError(t, tp.ForceFlush(context.Background()))
	assert.Len(t, exp.Items(), sampled)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestSimpleProcessorExportsSynchronously(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[telemetry.Span]()
	proc, err := trace.NewSimpleSpanProcessor(exp)
	require.NoError(t, err)

	tp := trace.NewTracerProvider(trace.WithSpanProcessor(proc))
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.End()

	// No flush needed; the span was exported on End.
	batches := exp.Batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, "op", batches[0][0].Name)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracerStartConcurrent(t *testing.T) {
	rec := &recordingProcessor{}
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	tracer := tp.Tracer("test")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, span := tracer.Start(context.Background(), "op")
				span.SetAttributes(attribute.Int("j", j))
				span.End()
			}
		}()
	}
	wg.Wait()

	ended := rec.endedSpans()
	require.Len(t, ended, 400)
	seen := make(map[telemetry.SpanID]bool, len(ended))
	for _, s := range ended {
		require.False(t, seen[s.SpanContext.SpanID], "duplicate span ID")
		seen[s.SpanContext.SpanID] = true
	}
}
