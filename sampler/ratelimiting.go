// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package sampler // import "github.com/signalfold/otelkit/sampler"

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const defaultReplenishWindow = 100 * time.Millisecond

// RateLimiting is a token bucket sampler admitting at most maxPerSecond
// spans per second. The balance replenishes on a background tick and is
// additionally brought up to date on every sampling call, so the rate stays
// accurate even when decisions arrive in bursts between ticks.
type RateLimiting struct {
	maxPerSecond float64
	window       time.Duration

	mu      sync.Mutex
	balance float64
	// maxBal caps the balance and therefore the burst: a full bucket
	// admits maxBal spans back to back.
	maxBal float64
	last   time.Time

	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRateLimiting returns a rate limiting sampler. A zero window selects the
// 100ms default. The burst ceiling is maxPerSecond*window seconds of credit,
// floored at one token so low rates still admit spans.
func NewRateLimiting(maxPerSecond float64, window time.Duration) (*RateLimiting, error) {
	if math.IsNaN(maxPerSecond) || maxPerSecond <= 0 {
		return nil, fmt.Errorf("sampler: rate limit %v must be positive", maxPerSecond)
	}
	if window < 0 {
		return nil, fmt.Errorf("sampler: replenish window %v must not be negative", window)
	}
	if window == 0 {
		window = defaultReplenishWindow
	}
	s := &RateLimiting{
		maxPerSecond: maxPerSecond,
		window:       window,
		maxBal:       math.Max(maxPerSecond*window.Seconds(), 1),
		now:          time.Now,
		done:         make(chan struct{}),
	}
	// Start with a full bucket so the first spans of a quiet process are
	// admitted rather than waiting a tick.
	s.balance = s.maxBal
	s.last = s.now()

	s.wg.Add(1)
	go s.replenishLoop()
	return s, nil
}

func (s *RateLimiting) replenishLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.window)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.replenishLocked()
			s.mu.Unlock()
		}
	}
}

// replenishLocked credits the bucket for the time elapsed since the last
// update. Callers hold s.mu.
func (s *RateLimiting) replenishLocked() {
	now := s.now()
	elapsed := now.Sub(s.last).Seconds()
	if elapsed <= 0 {
		return
	}
	s.last = now
	s.balance = math.Min(s.balance+elapsed*s.maxPerSecond, s.maxBal)
}

// ShouldSample admits the span if a token is available. Replenish and
// consume happen in one critical section so concurrent callers cannot
// overdraw the bucket.
func (s *RateLimiting) ShouldSample(Parameters) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replenishLocked()
	if s.balance >= 1 {
		s.balance--
		return Result{Decision: RecordAndSample}
	}
	return Result{Decision: Drop}
}

func (s *RateLimiting) Description() string {
	return fmt.Sprintf("RateLimiting{%g/s}", s.maxPerSecond)
}

// Close stops the replenish goroutine. Sampling calls after Close still work;
// they rely on the on-demand replenish alone.
func (s *RateLimiting) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}
