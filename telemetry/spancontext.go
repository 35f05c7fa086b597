// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry // import "github.com/signalfold/otelkit/telemetry"

import "context"

// SpanContext identifies a span within a trace together with the state that
// propagates across process boundaries.
type SpanContext struct {
	TraceID TraceID
	SpanID  SpanID
	// Sampled records the sampling decision made for this span's trace.
	Sampled bool
	// Remote is true when the context was extracted from an incoming
	// request rather than created in this process.
	Remote bool
}

// IsValid reports whether the SpanContext has both a valid trace and span ID.
func (sc SpanContext) IsValid() bool {
	return sc.TraceID.IsValid() && sc.SpanID.IsValid()
}

type spanContextKey struct{}

// ContextWithSpanContext returns a copy of parent carrying sc.
func ContextWithSpanContext(parent context.Context, sc SpanContext) context.Context {
	return context.WithValue(parent, spanContextKey{}, sc)
}

// SpanContextFromContext returns the SpanContext stored in ctx, or the zero
// value when none is present.
func SpanContextFromContext(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(spanContextKey{}).(SpanContext)
	return sc
}
