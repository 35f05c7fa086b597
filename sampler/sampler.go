// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package sampler implements the head sampling decisions that gate whether a
// span enters the export pipeline. All samplers are safe for concurrent use;
// only the rate limiting sampler carries internal mutable state.
package sampler // import "github.com/signalfold/otelkit/sampler"

import (
	"context"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/telemetry"
)

// Decision is the outcome of a sampling call.
type Decision int

const (
	// Drop means the span is neither recorded nor exported.
	Drop Decision = iota
	// RecordOnly means the span is recorded locally but not exported.
	RecordOnly
	// RecordAndSample means the span is recorded and exported.
	RecordAndSample
)

func (d Decision) String() string {
	switch d {
	case RecordOnly:
		return "record_only"
	case RecordAndSample:
		return "record_and_sample"
	}
	return "drop"
}

// Parameters carries everything available to a sampler at span start. The
// span body does not exist yet; deciders see only identity and metadata.
type Parameters struct {
	// ParentContext may carry the parent telemetry.SpanContext.
	ParentContext context.Context
	TraceID       telemetry.TraceID
	Name          string
	Kind          telemetry.SpanKind
	Attributes    []attribute.KeyValue
	Links         []telemetry.Link
}

// Result is a sampling decision plus attributes the sampler wants merged
// into the span. A fresh Result is produced per call.
type Result struct {
	Decision   Decision
	Attributes []attribute.KeyValue
}

// Sampler decides whether a span should be recorded and exported.
//
// ShouldSample must be deterministic for deterministic samplers, must never
// panic for well-formed parameters, and must be callable concurrently.
type Sampler interface {
	ShouldSample(p Parameters) Result

	// Description identifies the sampler and its configuration, e.g.
	// "TraceIDRatio{0.25}". Used when logging provider configuration.
	Description() string
}
