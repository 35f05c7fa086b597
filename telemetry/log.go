// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry // import "github.com/signalfold/otelkit/telemetry"

import (
	"time"

	"github.com/signalfold/otelkit/attribute"
)

// Severity is the log record severity number, mirroring the OTLP ranges
// (1-4 trace, 5-8 debug, 9-12 info, 13-16 warn, 17-20 error, 21-24 fatal).
type Severity int

const (
	SeverityUndefined Severity = 0
	SeverityTrace     Severity = 1
	SeverityDebug     Severity = 5
	SeverityInfo      Severity = 9
	SeverityWarn      Severity = 13
	SeverityError     Severity = 17
	SeverityFatal     Severity = 21
)

func (s Severity) String() string {
	switch {
	case s >= SeverityFatal:
		return "FATAL"
	case s >= SeverityError:
		return "ERROR"
	case s >= SeverityWarn:
		return "WARN"
	case s >= SeverityInfo:
		return "INFO"
	case s >= SeverityDebug:
		return "DEBUG"
	case s >= SeverityTrace:
		return "TRACE"
	}
	return "UNDEFINED"
}

// Record is a finished log record. Like Span it is frozen once emitted.
type Record struct {
	Timestamp         time.Time
	ObservedTimestamp time.Time
	Severity          Severity
	SeverityText      string
	Body              attribute.Value
	Attributes        attribute.Set
	TraceID           TraceID
	SpanID            SpanID
	Scope             Scope
	Resource          *Resource
}
