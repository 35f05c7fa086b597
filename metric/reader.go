// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package metric // import "github.com/signalfold/otelkit/metric"

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/signalfold/otelkit/exporter"
	"github.com/signalfold/otelkit/processor"
	"github.com/signalfold/otelkit/telemetry"
)

const (
	// DefaultCollectInterval is how often the reader polls its producers.
	DefaultCollectInterval = 10 * time.Second
	// DefaultCollectTimeout bounds one collection pass across all
	// producers.
	DefaultCollectTimeout = 5 * time.Second
	// defaultMetricScheduleDelay is the batch pipeline's timer for the
	// metric signal; shorter than the trace/log default because
	// collections are already coarse-grained.
	defaultMetricScheduleDelay = time.Second
)

// Producer supplies collected metric points. Aggregation (counter sums,
// histogram buckets) happens inside the producer; the reader only moves the
// collected batches into the export pipeline.
type Producer interface {
	Produce(ctx context.Context) (telemetry.Metrics, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(ctx context.Context) (telemetry.Metrics, error)

func (f ProducerFunc) Produce(ctx context.Context) (telemetry.Metrics, error) { return f(ctx) }

// PeriodicReader polls registered producers on a fixed interval and feeds
// each collection into a batch pipeline in front of the metric exporter.
type PeriodicReader struct {
	batcher *processor.Batcher[telemetry.Metrics]
	logger  *zap.Logger

	interval       time.Duration
	collectTimeout time.Duration

	mu        sync.Mutex
	producers []Producer
	resource  *telemetry.Resource

	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// ReaderOption configures a PeriodicReader.
type ReaderOption func(*PeriodicReader, *[]processor.Option)

// WithInterval sets the collection interval.
func WithInterval(d time.Duration) ReaderOption {
	return func(r *PeriodicReader, _ *[]processor.Option) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithCollectTimeout bounds one collection pass.
func WithCollectTimeout(d time.Duration) ReaderOption {
	return func(r *PeriodicReader, _ *[]processor.Option) {
		if d > 0 {
			r.collectTimeout = d
		}
	}
}

// WithPipelineOptions forwards options to the underlying batch pipeline.
func WithPipelineOptions(opts ...processor.Option) ReaderOption {
	return func(_ *PeriodicReader, pipeline *[]processor.Option) {
		*pipeline = append(*pipeline, opts...)
	}
}

// WithReaderLogger injects the reader logger; default no-op.
func WithReaderLogger(logger *zap.Logger) ReaderOption {
	return func(r *PeriodicReader, pipeline *[]processor.Option) {
		if logger != nil {
			r.logger = logger
			*pipeline = append(*pipeline, processor.WithLogger(logger))
		}
	}
}

// NewPeriodicReader builds a reader in front of exp. The reader is idle
// until a MeterProvider adopts and starts it.
func NewPeriodicReader(exp exporter.Exporter[telemetry.Metrics], opts ...ReaderOption) (*PeriodicReader, error) {
	r := &PeriodicReader{
		logger:         zap.NewNop(),
		interval:       DefaultCollectInterval,
		collectTimeout: DefaultCollectTimeout,
		stopCh:         make(chan struct{}),
	}
	pipeline := []processor.Option{processor.WithScheduleDelay(defaultMetricScheduleDelay)}
	for _, opt := range opts {
		opt(r, &pipeline)
	}
	b, err := processor.NewBatcher(exp, pipeline...)
	if err != nil {
		return nil, err
	}
	r.batcher = b
	return r, nil
}

// register adds producers and the resource stamped on collections; called
// by the owning MeterProvider before start.
func (r *PeriodicReader) register(res *telemetry.Resource, producers []Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resource = res
	r.producers = append(r.producers, producers...)
}

// start launches the pipeline and the collection ticker.
func (r *PeriodicReader) start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return processor.ErrStarted
	}
	r.started = true
	r.mu.Unlock()

	if err := r.batcher.Start(); err != nil {
		return err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.collect(context.Background())
			}
		}
	}()
	return nil
}

// collect runs one pass over all producers and enqueues their collections.
func (r *PeriodicReader) collect(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.collectTimeout)
	defer cancel()

	r.mu.Lock()
	producers := make([]Producer, len(r.producers))
	copy(producers, r.producers)
	res := r.resource
	r.mu.Unlock()

	for _, p := range producers {
		m, err := p.Produce(ctx)
		if err != nil {
			r.logger.Warn("metric producer failed", zap.Error(err))
			continue
		}
		if m.PointCount() == 0 {
			continue
		}
		if m.Resource == nil {
			m.Resource = res
		}
		r.batcher.Enqueue(m)
	}
}

// ForceFlush collects once and drains the pipeline.
func (r *PeriodicReader) ForceFlush(ctx context.Context) error {
	r.collect(ctx)
	return r.batcher.ForceFlush(ctx)
}

// Shutdown stops the ticker, performs a final collection and shuts the
// pipeline down. Idempotent.
func (r *PeriodicReader) Shutdown(ctx context.Context) error {
	var err error
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.wg.Wait()
		r.collect(ctx)
		err = r.batcher.Shutdown(ctx)
	})
	return err
}
