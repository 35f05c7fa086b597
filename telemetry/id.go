// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry // import "github.com/signalfold/otelkit/telemetry"

import (
	"encoding/hex"
	"errors"
)

// TraceID is a 16-byte identifier correlating the spans of one trace.
type TraceID [16]byte

// SpanID is an 8-byte identifier unique to a span within its trace.
type SpanID [8]byte

var (
	nilTraceID TraceID
	nilSpanID  SpanID

	errInvalidHexID = errors.New("telemetry: id is not a valid hex string of the expected length")
)

// IsValid reports whether the TraceID is non-zero.
func (t TraceID) IsValid() bool { return t != nilTraceID }

func (t TraceID) String() string { return hex.EncodeToString(t[:]) }

// IsValid reports whether the SpanID is non-zero.
func (s SpanID) IsValid() bool { return s != nilSpanID }

func (s SpanID) String() string { return hex.EncodeToString(s[:]) }

// TraceIDFromHex parses a 32-character hex string into a TraceID.
func TraceIDFromHex(h string) (TraceID, error) {
	var t TraceID
	if len(h) != 32 {
		return t, errInvalidHexID
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return t, errInvalidHexID
	}
	copy(t[:], b)
	return t, nil
}

// SpanIDFromHex parses a 16-character hex string into a SpanID.
func SpanIDFromHex(h string) (SpanID, error) {
	var s SpanID
	if len(h) != 16 {
		return s, errInvalidHexID
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return s, errInvalidHexID
	}
	copy(s[:], b)
	return s, nil
}
