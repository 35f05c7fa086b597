// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package processor // import "github.com/signalfold/otelkit/processor"

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/signalfold/otelkit/exporter"
)

// retrySender wraps an exporter with exponential backoff plus jitter. It
// sits between the batcher and the real exporter, so from the batcher's
// point of view a retried batch is still a single Export call that either
// eventually succeeds or finally fails.
type retrySender[T any] struct {
	next   exporter.Exporter[T]
	cfg    RetryConfig
	logger *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newRetrySender[T any](next exporter.Exporter[T], cfg RetryConfig, logger *zap.Logger) *retrySender[T] {
	return &retrySender[T]{
		next:   next,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

func (rs *retrySender[T]) Export(ctx context.Context, items []T) error {
	// Not NewExponentialBackOff: Reset must run after the intervals are
	// set, which saves the constructor's redundant clock read.
	expBackoff := backoff.ExponentialBackOff{
		InitialInterval:     rs.cfg.InitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         rs.cfg.MaxInterval,
		MaxElapsedTime:      rs.cfg.MaxElapsedTime,
		Clock:               backoff.SystemClock,
		Stop:                backoff.Stop,
	}
	expBackoff.Reset()

	for {
		err := rs.next.Export(ctx, items)
		if err == nil {
			return nil
		}
		if exporter.IsPermanent(err) {
			return err
		}

		delay := expBackoff.NextBackOff()
		if delay == backoff.Stop {
			return fmt.Errorf("max elapsed time expired: %w", err)
		}
		if throttle := exporter.ThrottleDelay(err); throttle > delay {
			delay = throttle
		}
		rs.logger.Debug("export failed, will retry",
			zap.Duration("backoff_delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("request cancelled or timed out: %w", err)
		case <-rs.stopCh:
			return fmt.Errorf("interrupted due to shutdown: %w", err)
		case <-time.After(delay):
		}
	}
}

func (rs *retrySender[T]) ForceFlush(ctx context.Context) error {
	return rs.next.ForceFlush(ctx)
}

func (rs *retrySender[T]) Shutdown(ctx context.Context) error {
	rs.stopOnce.Do(func() { close(rs.stopCh) })
	return rs.next.Shutdown(ctx)
}
