// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package exporter defines the contract between the batch pipeline and the
// transports that deliver telemetry to a backend.
package exporter // import "github.com/signalfold/otelkit/exporter"

import "context"

// Exporter delivers finished telemetry batches. The batch processor owns its
// exporter exclusively and serializes Export calls; implementations do not
// need to tolerate concurrent Export invocations from a single processor.
//
// Export must honor ctx's deadline, must treat an empty batch as a success
// without performing I/O, and after Shutdown must return an error rather
// than panic. Retrying transient failures is an implementation concern and
// invisible to the caller, which sees only the final outcome.
type Exporter[T any] interface {
	Export(ctx context.Context, items []T) error

	// ForceFlush pushes any buffered data to the backend.
	ForceFlush(ctx context.Context) error

	// Shutdown flushes and releases resources. Idempotent.
	Shutdown(ctx context.Context) error
}
