// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package processor implements the signal-generic batch export pipeline: a
// bounded enqueue buffer fed by producers, a single loop goroutine that forms
// size-bounded batches and drives the exporter, and the flush/shutdown
// protocol shared by the trace, metric and log frontends.
package processor // import "github.com/signalfold/otelkit/processor"

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/signalfold/otelkit/exporter"
)

var (
	// ErrStarted is returned by Start when the pipeline is already running.
	ErrStarted = errors.New("processor: already started")
	// ErrStopped is returned by Start after Shutdown.
	ErrStopped = errors.New("processor: already shut down")

	errNilExporter = errors.New("processor: nil exporter")
)

// Batcher decouples telemetry producers from exporter I/O. Producers call
// Enqueue from any goroutine and never block: when the buffer is full the
// incoming item is dropped and counted. One loop goroutine owns batch
// formation and is the only caller of the exporter, so exporter calls are
// serialized and network stalls never propagate to producers. Batches go out
// when they reach MaxExportBatchSize, when the schedule timer fires, or on
// ForceFlush/Shutdown.
//
// Delivery is at-most-once: a failed or timed-out export is logged and the
// batch discarded, never re-enqueued.
type Batcher[T any] struct {
	set settings
	exp exporter.Exporter[T]

	queue   chan T
	batch   []T
	timer   *time.Timer
	flushCh chan flushRequest

	started  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	loopDone chan struct{}

	dropped  atomic.Uint64
	exported atomic.Uint64
}

type flushRequest struct {
	ctx context.Context
	err chan error
}

// NewBatcher builds a pipeline in front of exp. The pipeline is idle until
// Start is called. When retry is enabled in the configuration the exporter
// is wrapped in a backoff retry sender.
func NewBatcher[T any](exp exporter.Exporter[T], opts ...Option) (*Batcher[T], error) {
	if exp == nil {
		return nil, errNilExporter
	}
	set := newSettings(opts)
	if err := set.cfg.Validate(); err != nil {
		return nil, err
	}
	if set.cfg.MaxExportBatchSize > set.cfg.MaxQueueSize {
		set.cfg.MaxExportBatchSize = set.cfg.MaxQueueSize
	}
	if set.cfg.Retry.Enabled {
		exp = newRetrySender(exp, set.cfg.Retry, set.logger)
	}
	return &Batcher[T]{
		set:      set,
		exp:      exp,
		queue:    make(chan T, set.cfg.MaxQueueSize),
		batch:    make([]T, 0, set.cfg.MaxExportBatchSize),
		flushCh:  make(chan flushRequest),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}, nil
}

// Start launches the loop goroutine.
func (b *Batcher[T]) Start() error {
	if b.stopped.Load() {
		return ErrStopped
	}
	if !b.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	go b.loop()
	return nil
}

// Enqueue hands a finished item to the pipeline. It never blocks and never
// returns an error: a full buffer drops the item (the drop is visible via
// Dropped and a debug log), and after Shutdown the call is a silent no-op.
// Safe for concurrent use.
func (b *Batcher[T]) Enqueue(item T) {
	if b.stopped.Load() {
		return
	}
	select {
	case b.queue <- item:
	default:
		n := b.dropped.Inc()
		b.set.logger.Debug("queue full, dropping item", zap.Uint64("total_dropped", n))
	}
}

// Dropped returns the number of items rejected because the buffer was full.
func (b *Batcher[T]) Dropped() uint64 { return b.dropped.Load() }

// Exported returns the number of items handed to the exporter, whether or
// not the export succeeded.
func (b *Batcher[T]) Exported() uint64 { return b.exported.Load() }

func (b *Batcher[T]) loop() {
	defer close(b.loopDone)
	b.timer = time.NewTimer(b.set.cfg.ScheduleDelay)
	defer b.timer.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case req := <-b.flushCh:
			req.err <- b.flush(req.ctx)
		case <-b.timer.C:
			b.exportPending(context.Background())
			b.timer.Reset(b.set.cfg.ScheduleDelay)
		case item := <-b.queue:
			b.batch = append(b.batch, item)
			if len(b.batch) >= b.set.cfg.MaxExportBatchSize {
				b.stopTimer()
				b.exportPending(context.Background())
				b.timer.Reset(b.set.cfg.ScheduleDelay)
			}
		}
	}
}

func (b *Batcher[T]) stopTimer() {
	if !b.timer.Stop() {
		select {
		case <-b.timer.C:
		default:
		}
	}
}

// drain moves everything already buffered into the pending batch and exports
// it in MaxExportBatchSize chunks. Single-threaded: called from the loop or,
// after the loop has exited, from Shutdown.
func (b *Batcher[T]) drain(ctx context.Context) {
	for {
		select {
		case item := <-b.queue:
			b.batch = append(b.batch, item)
		default:
			b.exportPending(ctx)
			return
		}
	}
}

// flush fully drains the pipeline and then flushes the exporter itself.
func (b *Batcher[T]) flush(ctx context.Context) error {
	b.stopTimer()
	b.drain(ctx)
	b.timer.Reset(b.set.cfg.ScheduleDelay)
	return b.exp.ForceFlush(ctx)
}

// exportPending sends the pending batch in FIFO order, at most
// MaxExportBatchSize items per Export call.
func (b *Batcher[T]) exportPending(ctx context.Context) {
	for len(b.batch) > 0 {
		n := len(b.batch)
		if n > b.set.cfg.MaxExportBatchSize {
			n = b.set.cfg.MaxExportBatchSize
		}
		b.export(ctx, b.batch[:n])
		// Release exported items before shifting the remainder down.
		remaining := copy(b.batch, b.batch[n:])
		clearTail(b.batch[remaining:])
		b.batch = b.batch[:remaining]
	}
}

func (b *Batcher[T]) export(ctx context.Context, items []T) {
	if len(items) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, b.set.cfg.ExportTimeout)
	defer cancel()
	b.exported.Add(uint64(len(items)))
	if err := b.exp.Export(ctx, items); err != nil {
		// Terminal at this boundary: the batch is gone, producers are
		// long past caring, and the pipeline keeps running.
		b.set.logger.Warn("export failed, discarding batch",
			zap.Int("batch_size", len(items)),
			zap.Error(err))
	}
}

func clearTail[T any](tail []T) {
	var zero T
	for i := range tail {
		tail[i] = zero
	}
}

// ForceFlush synchronously drains the buffer, exports everything pending and
// flushes the exporter. Safe to call while the timer is firing; both paths
// are serialized through the loop goroutine. Before Start (and after
// Shutdown) there is no concurrent loop, so the drain runs inline.
func (b *Batcher[T]) ForceFlush(ctx context.Context) error {
	if b.stopped.Load() {
		return nil
	}
	if !b.started.Load() {
		b.drain(ctx)
		return b.exp.ForceFlush(ctx)
	}
	req := flushRequest{ctx: ctx, err: make(chan error, 1)}
	select {
	case b.flushCh <- req:
	case <-b.stopCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.err:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the timer and the loop, performs one final full drain, and
// shuts the exporter down. Enqueue becomes a no-op the moment Shutdown
// begins. Idempotent: the second and later calls return nil without side
// effects. An export already in flight completes or hits its own deadline;
// no new export starts after the final drain.
func (b *Batcher[T]) Shutdown(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.stopped.Store(true)
		done := make(chan error, 1)
		go func() {
			close(b.stopCh)
			if b.started.Load() {
				<-b.loopDone
			}
			b.drain(ctx)
			done <- b.exp.Shutdown(ctx)
		}()
		select {
		case err = <-done:
		case <-ctx.Done():
			err = multierr.Append(ctx.Err(), errors.New("processor: shutdown abandoned before drain completed"))
		}
	})
	return err
}
