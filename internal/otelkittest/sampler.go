// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package otelkittest // import "github.com/signalfold/otelkit/internal/otelkittest"

import (
	"sync"

	"github.com/signalfold/otelkit/sampler"
)

// SpySampler records every sampling call and answers with a fixed result.
type SpySampler struct {
	mu     sync.Mutex
	calls  []sampler.Parameters
	Result sampler.Result
}

// NewSpySampler returns a spy answering with decision for every call.
func NewSpySampler(decision sampler.Decision) *SpySampler {
	return &SpySampler{Result: sampler.Result{Decision: decision}}
}

func (s *SpySampler) ShouldSample(p sampler.Parameters) sampler.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, p)
	return s.Result
}

func (s *SpySampler) Description() string { return "Spy" }

// Calls returns a copy of the recorded sampling parameters.
func (s *SpySampler) Calls() []sampler.Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sampler.Parameters, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of ShouldSample invocations.
func (s *SpySampler) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
