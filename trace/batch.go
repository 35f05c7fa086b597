// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package trace // import "github.com/signalfold/otelkit/trace"

import (
	"context"

	"go.uber.org/zap"

	"github.com/signalfold/otelkit/exporter"
	"github.com/signalfold/otelkit/processor"
	"github.com/signalfold/otelkit/telemetry"
)

// batchSpanProcessor feeds sampled finished spans into the generic batch
// pipeline. Unsampled spans never enter the queue.
type batchSpanProcessor struct {
	batcher *processor.Batcher[telemetry.Span]
	logger  *zap.Logger
}

// NewBatchSpanProcessor builds and starts a batch pipeline in front of exp.
func NewBatchSpanProcessor(exp exporter.Exporter[telemetry.Span], opts ...processor.Option) (SpanProcessor, error) {
	b, err := processor.NewBatcher(exp, opts...)
	if err != nil {
		return nil, err
	}
	if err := b.Start(); err != nil {
		return nil, err
	}
	return &batchSpanProcessor{batcher: b, logger: processor.LoggerFrom(opts...)}, nil
}

func (p *batchSpanProcessor) OnStart(context.Context, telemetry.Span) {}

func (p *batchSpanProcessor) OnEnd(s telemetry.Span) {
	if !s.SpanContext.Sampled {
		return
	}
	p.batcher.Enqueue(s)
}

func (p *batchSpanProcessor) OnSetName(s telemetry.Span, newName string) {
	p.logger.Debug("span renamed",
		zap.String("span_id", s.SpanContext.SpanID.String()),
		zap.String("new_name", newName))
}

func (p *batchSpanProcessor) ForceFlush(ctx context.Context) error {
	return p.batcher.ForceFlush(ctx)
}

func (p *batchSpanProcessor) Shutdown(ctx context.Context) error {
	return p.batcher.Shutdown(ctx)
}

// NewSimpleSpanProcessor exports each sampled span synchronously on end.
// For tests and short-lived tools.
func NewSimpleSpanProcessor(exp exporter.Exporter[telemetry.Span], opts ...processor.Option) (SpanProcessor, error) {
	s, err := processor.NewSimple(exp, opts...)
	if err != nil {
		return nil, err
	}
	return &simpleSpanProcessor{simple: s, logger: processor.LoggerFrom(opts...)}, nil
}

type simpleSpanProcessor struct {
	simple *processor.Simple[telemetry.Span]
	logger *zap.Logger
}

func (p *simpleSpanProcessor) OnStart(context.Context, telemetry.Span) {}

func (p *simpleSpanProcessor) OnEnd(s telemetry.Span) {
	if !s.SpanContext.Sampled {
		return
	}
	p.simple.Enqueue(s)
}

func (p *simpleSpanProcessor) OnSetName(telemetry.Span, string) {}

func (p *simpleSpanProcessor) ForceFlush(ctx context.Context) error {
	return p.simple.ForceFlush(ctx)
}

func (p *simpleSpanProcessor) Shutdown(ctx context.Context) error {
	return p.simple.Shutdown(ctx)
}
