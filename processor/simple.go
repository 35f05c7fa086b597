// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package processor // import "github.com/signalfold/otelkit/processor"

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/signalfold/otelkit/exporter"
)

// Simple exports every item synchronously as it arrives, one-item batches,
// serialized through a mutex. The enqueue path blocks on exporter I/O, so it
// belongs in tests and short-lived tools, not in production services.
type Simple[T any] struct {
	set settings
	exp exporter.Exporter[T]

	exportMu sync.Mutex
	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewSimple builds a synchronous pass-through processor.
func NewSimple[T any](exp exporter.Exporter[T], opts ...Option) (*Simple[T], error) {
	if exp == nil {
		return nil, errNilExporter
	}
	set := newSettings(opts)
	if err := set.cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simple[T]{set: set, exp: exp}, nil
}

// Enqueue exports item immediately, bounded by the configured export
// timeout. Failures are logged and dropped, same contract as the batcher.
func (s *Simple[T]) Enqueue(item T) {
	if s.stopped.Load() {
		return
	}
	s.exportMu.Lock()
	defer s.exportMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), s.set.cfg.ExportTimeout)
	defer cancel()
	if err := s.exp.Export(ctx, []T{item}); err != nil {
		s.set.logger.Warn("export failed, discarding item", zap.Error(err))
	}
}

// ForceFlush flushes the exporter; there is no internal buffer to drain.
func (s *Simple[T]) ForceFlush(ctx context.Context) error {
	if s.stopped.Load() {
		return nil
	}
	return s.exp.ForceFlush(ctx)
}

// Shutdown stops accepting items and shuts the exporter down. Idempotent.
func (s *Simple[T]) Shutdown(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		// Wait for an in-flight export rather than aborting it.
		s.exportMu.Lock()
		defer s.exportMu.Unlock()
		err = s.exp.Shutdown(ctx)
	})
	return err
}
