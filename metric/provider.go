// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package metric wires the metric signal pipeline: producers hand collected
// point batches to periodic readers, which drive the shared batch pipeline
// toward the metric exporter.
package metric // import "github.com/signalfold/otelkit/metric"

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/signalfold/otelkit/telemetry"
)

// MeterProvider is the composition root for the metric signal. It owns the
// readers and hands every reader the registered producers and the resource.
type MeterProvider struct {
	readers  []*PeriodicReader
	resource *telemetry.Resource
	logger   *zap.Logger

	stopOnce sync.Once
}

// ProviderOption configures a MeterProvider.
type ProviderOption func(*MeterProvider, *[]Producer)

// WithResource sets the resource stamped on collections lacking one.
func WithResource(r *telemetry.Resource) ProviderOption {
	return func(mp *MeterProvider, _ *[]Producer) {
		if r != nil {
			mp.resource = r
		}
	}
}

// WithReader adopts a reader; the provider starts and later shuts it down.
func WithReader(r *PeriodicReader) ProviderOption {
	return func(mp *MeterProvider, _ *[]Producer) {
		if r != nil {
			mp.readers = append(mp.readers, r)
		}
	}
}

// WithProducer registers a producer polled by every reader.
func WithProducer(p Producer) ProviderOption {
	return func(_ *MeterProvider, producers *[]Producer) {
		if p != nil {
			*producers = append(*producers, p)
		}
	}
}

// WithLogger injects the provider's diagnostic logger; default no-op.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(mp *MeterProvider, _ *[]Producer) {
		if logger != nil {
			mp.logger = logger
		}
	}
}

// NewMeterProvider builds the provider and starts its readers.
func NewMeterProvider(opts ...ProviderOption) (*MeterProvider, error) {
	mp := &MeterProvider{
		resource: telemetry.DefaultResource(),
		logger:   zap.NewNop(),
	}
	var producers []Producer
	for _, opt := range opts {
		opt(mp, &producers)
	}
	for _, r := range mp.readers {
		r.register(mp.resource, producers)
		if err := r.start(); err != nil {
			return nil, err
		}
	}
	mp.logger.Debug("meter provider configured",
		zap.Int("readers", len(mp.readers)),
		zap.Int("producers", len(producers)))
	return mp, nil
}

// ForceFlush collects and drains every reader.
func (mp *MeterProvider) ForceFlush(ctx context.Context) error {
	var err error
	for _, r := range mp.readers {
		err = multierr.Append(err, r.ForceFlush(ctx))
	}
	return err
}

// Shutdown performs a final collection and shuts every reader down.
// Idempotent.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	var err error
	mp.stopOnce.Do(func() {
		for _, r := range mp.readers {
			err = multierr.Append(err, r.Shutdown(ctx))
		}
	})
	return err
}
