// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry // import "github.com/signalfold/otelkit/telemetry"

import (
	"time"

	"github.com/signalfold/otelkit/attribute"
)

// SpanKind is the role a span plays in a trace.
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

func (k SpanKind) String() string {
	switch k {
	case SpanKindServer:
		return "server"
	case SpanKindClient:
		return "client"
	case SpanKindProducer:
		return "producer"
	case SpanKindConsumer:
		return "consumer"
	}
	return "internal"
}

// StatusCode is the outcome recorded on a finished span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	}
	return "unset"
}

// Status is the span outcome plus an optional description.
type Status struct {
	Code        StatusCode
	Description string
}

// Link connects a span to another span context.
type Link struct {
	SpanContext SpanContext
	Attributes  attribute.Set
}

// Span is the immutable snapshot of a finished span handed to processors and
// exporters. Nothing mutates it after End; processors may retain it across
// goroutines without synchronization.
type Span struct {
	SpanContext SpanContext
	Parent      SpanContext
	Name        string
	Kind        SpanKind
	StartTime   time.Time
	EndTime     time.Time
	Attributes  attribute.Set
	Links       []Link
	Status      Status
	Scope       Scope
	Resource    *Resource

	// DroppedAttributes counts attributes discarded by the recording
	// layer's per-span limit.
	DroppedAttributes int
}
