// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package sampler // import "github.com/signalfold/otelkit/sampler"

import (
	"encoding/binary"
	"fmt"
	"math"
)

type traceIDRatio struct {
	ratio float64
	// upperBound is ratio scaled to the 63-bit space the trace ID hash is
	// reduced to. Comparing integers keeps the decision exact; multiplying
	// the full 128-bit ID into a float would lose precision.
	upperBound uint64
}

// NewTraceIDRatio returns a sampler that deterministically samples the given
// fraction of traces, keyed on the low 8 bytes of the trace ID. The same
// trace ID always yields the same decision, so participants of a distributed
// trace configured with the same ratio agree without coordination.
func NewTraceIDRatio(ratio float64) (Sampler, error) {
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("sampler: trace ID ratio %v outside [0, 1]", ratio)
	}
	return traceIDRatio{
		ratio:      ratio,
		upperBound: uint64(ratio * (1 << 63)),
	}, nil
}

func (s traceIDRatio) ShouldSample(p Parameters) Result {
	// Skip the hash entirely at the degenerate ratios.
	if s.ratio <= 0 {
		return Result{Decision: Drop}
	}
	if s.ratio >= 1 {
		return Result{Decision: RecordAndSample}
	}
	x := binary.BigEndian.Uint64(p.TraceID[8:16]) >> 1
	if x < s.upperBound {
		return Result{Decision: RecordAndSample}
	}
	return Result{Decision: Drop}
}

func (s traceIDRatio) Description() string {
	return fmt.Sprintf("TraceIDRatio{%g}", s.ratio)
}
