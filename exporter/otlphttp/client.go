// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package otlphttp exports telemetry to an OTLP/HTTP collector endpoint as
// JSON payloads mirroring the OTLP field names. Transient failures are
// retried internally with exponential backoff plus jitter; the pipeline in
// front of the exporter only sees the final outcome.
package otlphttp // import "github.com/signalfold/otelkit/exporter/otlphttp"

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/signalfold/otelkit/exporter"
	"github.com/signalfold/otelkit/telemetry"
)

var errClientShutdown = errors.New("otlphttp: exporter is shut down")

type client[T any] struct {
	cfg     Config
	url     string
	logger  *zap.Logger
	http    *http.Client
	payload func([]T) any

	shutdown atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

func newClient[T any](path string, payload func([]T) any, opts []Option) (*client[T], error) {
	set := settings{cfg: NewDefaultConfig(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&set)
	}
	if err := set.cfg.Validate(); err != nil {
		return nil, err
	}
	return &client[T]{
		cfg:     set.cfg,
		url:     strings.TrimSuffix(set.cfg.Endpoint, "/") + path,
		logger:  set.logger,
		http:    &http.Client{Timeout: set.cfg.Timeout},
		payload: payload,
		stopCh:  make(chan struct{}),
	}, nil
}

// NewSpanExporter returns an OTLP/HTTP exporter posting to /v1/traces.
func NewSpanExporter(opts ...Option) (exporter.Exporter[telemetry.Span], error) {
	return newClient(tracesPath, spansPayload, opts)
}

// NewLogExporter returns an OTLP/HTTP exporter posting to /v1/logs.
func NewLogExporter(opts ...Option) (exporter.Exporter[telemetry.Record], error) {
	return newClient(logsPath, recordsPayload, opts)
}

// NewMetricExporter returns an OTLP/HTTP exporter posting to /v1/metrics.
func NewMetricExporter(opts ...Option) (exporter.Exporter[telemetry.Metrics], error) {
	return newClient(metricsPath, metricsPayload, opts)
}

func (c *client[T]) Export(ctx context.Context, items []T) error {
	if c.shutdown.Load() {
		return errClientShutdown
	}
	if len(items) == 0 {
		return nil
	}
	body, err := json.Marshal(c.payload(items))
	if err != nil {
		return exporter.NewPermanent(fmt.Errorf("otlphttp: encode payload: %w", err))
	}
	if !c.cfg.DisableCompression {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return exporter.NewPermanent(fmt.Errorf("otlphttp: compress payload: %w", err))
		}
		if err := zw.Close(); err != nil {
			return exporter.NewPermanent(fmt.Errorf("otlphttp: compress payload: %w", err))
		}
		body = buf.Bytes()
	}

	if !c.cfg.Retry.Enabled {
		return c.attempt(ctx, body)
	}

	expBackoff := backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.Retry.InitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         c.cfg.Retry.MaxInterval,
		MaxElapsedTime:      c.cfg.Retry.MaxElapsedTime,
		Clock:               backoff.SystemClock,
		Stop:                backoff.Stop,
	}
	expBackoff.Reset()

	for {
		err := c.attempt(ctx, body)
		if err == nil {
			return nil
		}
		if exporter.IsPermanent(err) {
			return err
		}
		delay := expBackoff.NextBackOff()
		if delay == backoff.Stop {
			return fmt.Errorf("otlphttp: retry budget exhausted: %w", err)
		}
		if throttle := exporter.ThrottleDelay(err); throttle > delay {
			delay = throttle
		}
		c.logger.Debug("request failed, backing off",
			zap.Duration("backoff_delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("otlphttp: request cancelled: %w", err)
		case <-c.stopCh:
			return fmt.Errorf("otlphttp: interrupted by shutdown: %w", err)
		case <-time.After(delay):
		}
	}
}

// attempt performs one POST and maps the response status onto the error
// taxonomy: 2xx success, 429/503 throttle, other 5xx retryable, remaining
// 4xx permanent.
func (c *client[T]) attempt(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return exporter.NewPermanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !c.cfg.DisableCompression {
		req.Header.Set("Content-Encoding", "gzip")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport errors (refused, reset, timeout) are retryable.
		return fmt.Errorf("otlphttp: send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<12))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		statusErr := fmt.Errorf("otlphttp: server returned %s", resp.Status)
		if delay := retryAfter(resp); delay > 0 {
			return exporter.NewThrottle(statusErr, delay)
		}
		return statusErr
	case resp.StatusCode >= 500:
		return fmt.Errorf("otlphttp: server returned %s", resp.Status)
	default:
		return exporter.NewPermanent(fmt.Errorf("otlphttp: server rejected request: %s", resp.Status))
	}
}

// retryAfter parses the Retry-After response header (seconds form only).
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	secs, err := strconv.Atoi(h)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (c *client[T]) ForceFlush(context.Context) error {
	// Requests are not buffered; every Export completed its I/O.
	return nil
}

func (c *client[T]) Shutdown(context.Context) error {
	c.stopOnce.Do(func() {
		c.shutdown.Store(true)
		close(c.stopCh)
		c.http.CloseIdleConnections()
	})
	return nil
}
