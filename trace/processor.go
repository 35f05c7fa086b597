// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package trace // import "github.com/signalfold/otelkit/trace"

import (
	"context"

	"github.com/signalfold/otelkit/telemetry"
)

// SpanProcessor receives span lifecycle events from a TracerProvider.
// Implementations must tolerate concurrent calls from multiple goroutines.
type SpanProcessor interface {
	// OnStart is called synchronously when a recording span starts;
	// parent carries the parent span context, if any. It must not block.
	OnStart(parent context.Context, s telemetry.Span)

	// OnEnd is called when a recording span finishes. The snapshot is
	// frozen; the processor may retain it indefinitely.
	OnEnd(s telemetry.Span)

	// OnSetName is called when a recording span is renamed before it
	// ends. Informational; batching processors take no action.
	OnSetName(s telemetry.Span, newName string)

	// ForceFlush exports everything buffered so far.
	ForceFlush(ctx context.Context) error

	// Shutdown flushes and releases resources; afterwards the other
	// methods are no-ops. Idempotent.
	Shutdown(ctx context.Context) error
}
