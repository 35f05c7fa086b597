// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package log // import "github.com/signalfold/otelkit/log"

import (
	"context"

	"github.com/signalfold/otelkit/exporter"
	"github.com/signalfold/otelkit/processor"
	"github.com/signalfold/otelkit/telemetry"
)

// RecordProcessor receives emitted log records from a LoggerProvider.
// Implementations must tolerate concurrent calls.
type RecordProcessor interface {
	// OnEmit is called for every emitted record. It must not block.
	OnEmit(ctx context.Context, r telemetry.Record)

	// ForceFlush exports everything buffered so far.
	ForceFlush(ctx context.Context) error

	// Shutdown flushes and releases resources; afterwards OnEmit is a
	// no-op. Idempotent.
	Shutdown(ctx context.Context) error
}

// batchRecordProcessor feeds emitted records into the generic batch
// pipeline.
type batchRecordProcessor struct {
	batcher *processor.Batcher[telemetry.Record]
}

// NewBatchRecordProcessor builds and starts a batch pipeline in front of
// exp.
func NewBatchRecordProcessor(exp exporter.Exporter[telemetry.Record], opts ...processor.Option) (RecordProcessor, error) {
	b, err := processor.NewBatcher(exp, opts...)
	if err != nil {
		return nil, err
	}
	if err := b.Start(); err != nil {
		return nil, err
	}
	return &batchRecordProcessor{batcher: b}, nil
}

func (p *batchRecordProcessor) OnEmit(_ context.Context, r telemetry.Record) {
	p.batcher.Enqueue(r)
}

func (p *batchRecordProcessor) ForceFlush(ctx context.Context) error {
	return p.batcher.ForceFlush(ctx)
}

func (p *batchRecordProcessor) Shutdown(ctx context.Context) error {
	return p.batcher.Shutdown(ctx)
}

// NewSimpleRecordProcessor exports each record synchronously on emit.
func NewSimpleRecordProcessor(exp exporter.Exporter[telemetry.Record], opts ...processor.Option) (RecordProcessor, error) {
	s, err := processor.NewSimple(exp, opts...)
	if err != nil {
		return nil, err
	}
	return &simpleRecordProcessor{simple: s}, nil
}

type simpleRecordProcessor struct {
	simple *processor.Simple[telemetry.Record]
}

func (p *simpleRecordProcessor) OnEmit(_ context.Context, r telemetry.Record) {
	p.simple.Enqueue(r)
}

func (p *simpleRecordProcessor) ForceFlush(ctx context.Context) error {
	return p.simple.ForceFlush(ctx)
}

func (p *simpleRecordProcessor) Shutdown(ctx context.Context) error {
	return p.simple.Shutdown(ctx)
}
