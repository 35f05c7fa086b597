// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package otelkittest provides test doubles shared by the package tests.
package otelkittest // import "github.com/signalfold/otelkit/internal/otelkittest"

import (
	"context"
	"errors"
	"sync"
)

// ErrShutdown is returned by CapturingExporter.Export after Shutdown.
var ErrShutdown = errors.New("exporter is shut down")

// CapturingExporter records every call it receives. It can be told to fail
// Export a configurable number of times or permanently.
type CapturingExporter[T any] struct {
	mu sync.Mutex

	batches    [][]T
	exportErr  error
	failsLeft  int
	flushCount int
	shutCount  int
	shutdown   bool

	// ExportHook, when set, runs at the start of every Export call with
	// the call index (starting at 0). Useful to block or fail on demand.
	ExportHook func(call int, items []T) error
	calls      int
}

// NewCapturingExporter returns an exporter that succeeds every call.
func NewCapturingExporter[T any]() *CapturingExporter[T] {
	return &CapturingExporter[T]{}
}

// FailWith makes the next n Export calls return err; n < 0 means fail
// forever.
func (e *CapturingExporter[T]) FailWith(err error, n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exportErr = err
	e.failsLeft = n
}

func (e *CapturingExporter[T]) Export(ctx context.Context, items []T) error {
	e.mu.Lock()
	hook := e.ExportHook
	call := e.calls
	e.calls++
	if e.shutdown {
		e.mu.Unlock()
		return ErrShutdown
	}
	if hook != nil {
		e.mu.Unlock()
		if err := hook(call, items); err != nil {
			return err
		}
		e.mu.Lock()
	}
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.exportErr != nil && e.failsLeft != 0 {
		if e.failsLeft > 0 {
			e.failsLeft--
		}
		return e.exportErr
	}
	cp := make([]T, len(items))
	copy(cp, items)
	e.batches = append(e.batches, cp)
	return nil
}

func (e *CapturingExporter[T]) ForceFlush(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flushCount++
	return nil
}

func (e *CapturingExporter[T]) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutCount++
	e.shutdown = true
	return nil
}

// Batches returns a copy of the batches exported so far.
func (e *CapturingExporter[T]) Batches() [][]T {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]T, len(e.batches))
	copy(out, e.batches)
	return out
}

// Items returns all exported items flattened in export order.
func (e *CapturingExporter[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []T
	for _, b := range e.batches {
		out = append(out, b...)
	}
	return out
}

// FlushCount returns the number of ForceFlush calls received.
func (e *CapturingExporter[T]) FlushCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushCount
}

// ShutdownCount returns the number of Shutdown calls received.
func (e *CapturingExporter[T]) ShutdownCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutCount
}

// ExportCount returns the number of Export calls received, including failed
// ones.
func (e *CapturingExporter[T]) ExportCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
