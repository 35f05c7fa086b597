// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package otlphttp

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/exporter"
	"github.com/signalfold/otelkit/telemetry"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		Enabled:         true,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  250 * time.Millisecond,
	}
}

func testSpan() telemetry.Span {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return telemetry.Span{
		SpanContext: telemetry.SpanContext{
			TraceID: telemetry.TraceID{0x01},
			SpanID:  telemetry.SpanID{0x02},
			Sampled: true,
		},
		Name:       "GET /orders",
		Kind:       telemetry.SpanKindServer,
		StartTime:  start,
		EndTime:    start.Add(time.Millisecond),
		Attributes: attribute.NewSet(attribute.Int("http.status_code", 200)),
		Scope:      telemetry.Scope{Name: "orders"},
		Resource:   telemetry.NewResource(attribute.String("service.name", "shop")),
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Endpoint = ""
	require.Error(t, cfg.Validate())
	cfg.Endpoint = "ftp://somewhere"
	require.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Timeout = 0
	require.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Retry.InitialInterval = 0
	require.Error(t, cfg.Validate())
}

func TestExportPostsGzippedOTLPJSON(t *testing.T) {
	type received struct {
		path    string
		headers http.Header
		payload map[string]any
	}
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zr, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		raw, err := io.ReadAll(zr)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		got <- received{path: r.URL.Path, headers: r.Header, payload: payload}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exp, err := NewSpanExporter(
		WithEndpoint(srv.URL),
		WithHeaders(map[string]string{"Authorization": "Bearer token"}),
	)
	require.NoError(t, err)

	require.NoError(t, exp.Export(context.Background(), []telemetry.Span{testSpan()}))

	r := <-got
	assert.Equal(t, "/v1/traces", r.path)
	assert.Equal(t, "application/json", r.headers.Get("Content-Type"))
	assert.Equal(t, "gzip", r.headers.Get("Content-Encoding"))
	assert.Equal(t, "Bearer token", r.headers.Get("Authorization"))
	assert.NotEmpty(t, r.headers.Get("X-Request-Id"))

	resourceSpans, ok := r.payload["resourceSpans"].([]any)
	require.True(t, ok)
	require.Len(t, resourceSpans, 1)
	scopeSpans := resourceSpans[0].(map[string]any)["scopeSpans"].([]any)
	spans := scopeSpans[0].(map[string]any)["spans"].([]any)
	require.Len(t, spans, 1)
	span := spans[0].(map[string]any)
	assert.Equal(t, "GET /orders", span["name"])
	assert.Equal(t, testSpan().SpanContext.TraceID.String(), span["traceId"])
	assert.Equal(t, float64(2), span["kind"])
}

func TestExportUncompressedWhenDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Encoding"))
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := NewDefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.DisableCompression = true
	exp, err := NewSpanExporter(WithConfig(cfg))
	require.NoError(t, err)
	require.NoError(t, exp.Export(context.Background(), []telemetry.Span{testSpan()}))
}

func TestExportSignalPaths(t *testing.T) {
	paths := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	spanExp, err := NewSpanExporter(WithEndpoint(srv.URL))
	require.NoError(t, err)
	require.NoError(t, spanExp.Export(ctx, []telemetry.Span{testSpan()}))
	assert.Equal(t, "/v1/traces", <-paths)

	logExp, err := NewLogExporter(WithEndpoint(srv.URL))
	require.NoError(t, err)
	require.NoError(t, logExp.Export(ctx, []telemetry.Record{{Body: attribute.StringValue("x")}}))
	assert.Equal(t, "/v1/logs", <-paths)

	metricExp, err := NewMetricExporter(WithEndpoint(srv.URL))
	require.NoError(t, err)
	require.NoError(t, metricExp.Export(ctx, []telemetry.Metrics{{Points: []telemetry.Point{{Name: "m"}}}}))
	assert.Equal(t, "/v1/metrics", <-paths)
}

func TestExportRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exp, err := NewSpanExporter(WithEndpoint(srv.URL), WithRetry(fastRetry()))
	require.NoError(t, err)
	require.NoError(t, exp.Export(context.Background(), []telemetry.Span{testSpan()}))
	assert.EqualValues(t, 2, calls.Load())
}

func TestExportClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	exp, err := NewSpanExporter(WithEndpoint(srv.URL), WithRetry(fastRetry()))
	require.NoError(t, err)

	err = exp.Export(context.Background(), []telemetry.Span{testSpan()})
	require.Error(t, err)
	assert.True(t, exporter.IsPermanent(err))
	// Permanent failures are not retried.
	assert.EqualValues(t, 1, calls.Load())
}

func TestExportThrottledHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := fastRetry()
	cfg.MaxElapsedTime = 5 * time.Second
	exp, err := NewSpanExporter(WithEndpoint(srv.URL), WithRetry(cfg))
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, exp.Export(context.Background(), []telemetry.Span{testSpan()}))
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	assert.EqualValues(t, 2, calls.Load())
}

func TestExportRetryBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := fastRetry()
	cfg.MaxElapsedTime = 20 * time.Millisecond
	exp, err := NewSpanExporter(WithEndpoint(srv.URL), WithRetry(cfg))
	require.NoError(t, err)

	err = exp.Export(context.Background(), []telemetry.Span{testSpan()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry budget exhausted")
}

func TestExportAfterShutdown(t *testing.T) {
	exp, err := NewSpanExporter()
	require.NoError(t, err)
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))
	require.ErrorIs(t, exp.Export(context.Background(), []telemetry.Span{testSpan()}), errClientShutdown)
}

func TestExportEmptyBatchSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))
	defer srv.Close()

	exp, err := NewSpanExporter(WithEndpoint(srv.URL))
	require.NoError(t, err)
	require.NoError(t, exp.Export(context.Background(), nil))
}

func TestRetryAfterParsing(t *testing.T) {
	mk := func(v string) *http.Response {
		h := http.Header{}
		if v != "" {
			h.Set("Retry-After", v)
		}
		return &http.Response{Header: h}
	}
	assert.Equal(t, 30*time.Second, retryAfter(mk("30")))
	assert.Zero(t, retryAfter(mk("")))
	assert.Zero(t, retryAfter(mk("-5")))
	assert.Zero(t, retryAfter(mk("Wed, 21 Oct 2015 07:28:00 GMT")))
}
