// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package console exports telemetry as newline-delimited JSON to a writer,
// one object per batch item. Intended for development and tests.
package console // import "github.com/signalfold/otelkit/exporter/console"

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/signalfold/otelkit/exporter"
	"github.com/signalfold/otelkit/telemetry"
)

var errShutdown = errors.New("console exporter is shut down")

// Option configures a console exporter.
type Option func(*settings)

type settings struct {
	w io.Writer
}

// WithWriter redirects output; the default is os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) { s.w = w }
}

// core is shared by the three signal exporters: a mutex-guarded encoder and
// the shutdown flag. The batcher serializes its own Export calls, but the
// mutex also keeps output lines whole when several pipelines share a writer.
type core[T any] struct {
	mu       sync.Mutex
	enc      *json.Encoder
	convert  func(T) any
	shutdown bool
}

func newCore[T any](convert func(T) any, opts []Option) *core[T] {
	set := settings{w: os.Stdout}
	for _, opt := range opts {
		opt(&set)
	}
	return &core[T]{
		enc:     json.NewEncoder(set.w),
		convert: convert,
	}
}

func (c *core[T]) Export(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown {
		return errShutdown
	}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.enc.Encode(c.convert(item)); err != nil {
			return err
		}
	}
	return nil
}

func (c *core[T]) ForceFlush(context.Context) error {
	// Writes are unbuffered; nothing to flush.
	return nil
}

func (c *core[T]) Shutdown(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
	return nil
}

// NewSpanExporter returns a console exporter for spans.
func NewSpanExporter(opts ...Option) exporter.Exporter[telemetry.Span] {
	return newCore(spanJSON, opts)
}

// NewLogExporter returns a console exporter for log records.
func NewLogExporter(opts ...Option) exporter.Exporter[telemetry.Record] {
	return newCore(recordJSON, opts)
}

// NewMetricExporter returns a console exporter for metric collections.
func NewMetricExporter(opts ...Option) exporter.Exporter[telemetry.Metrics] {
	return newCore(metricsJSON, opts)
}
