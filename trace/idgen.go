// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package trace // import "github.com/signalfold/otelkit/trace"

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"

	"github.com/signalfold/otelkit/telemetry"
)

// IDGenerator produces trace and span identifiers.
type IDGenerator interface {
	// NewIDs returns identifiers for a new root span.
	NewIDs() (telemetry.TraceID, telemetry.SpanID)

	// NewSpanID returns an identifier for a child span of traceID.
	NewSpanID(traceID telemetry.TraceID) telemetry.SpanID
}

// randomIDGenerator draws IDs from a math/rand source seeded with
// crypto/rand entropy. A mutex guards the source; rand.Rand is not safe for
// concurrent use.
type randomIDGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newRandomIDGenerator() *randomIDGenerator {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("trace: cannot seed ID generator: " + err.Error())
	}
	return &randomIDGenerator{
		rng: rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:])))),
	}
}

func (g *randomIDGenerator) NewIDs() (telemetry.TraceID, telemetry.SpanID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var tid telemetry.TraceID
	var sid telemetry.SpanID
	for !tid.IsValid() {
		_, _ = g.rng.Read(tid[:])
	}
	for !sid.IsValid() {
		_, _ = g.rng.Read(sid[:])
	}
	return tid, sid
}

func (g *randomIDGenerator) NewSpanID(telemetry.TraceID) telemetry.SpanID {
	g.mu.Lock()
	defer g.mu.Unlock()
	var sid telemetry.SpanID
	for !sid.IsValid() {
		_, _ = g.rng.Read(sid[:])
	}
	return sid
}
