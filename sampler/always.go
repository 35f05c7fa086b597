// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package sampler // import "github.com/signalfold/otelkit/sampler"

type alwaysOn struct{}

func (alwaysOn) ShouldSample(Parameters) Result {
	return Result{Decision: RecordAndSample}
}

func (alwaysOn) Description() string { return "AlwaysOn" }

// AlwaysOn returns a sampler that samples every span.
func AlwaysOn() Sampler { return alwaysOn{} }

type alwaysOff struct{}

func (alwaysOff) ShouldSample(Parameters) Result {
	return Result{Decision: Drop}
}

func (alwaysOff) Description() string { return "AlwaysOff" }

// AlwaysOff returns a sampler that drops every span.
func AlwaysOff() Sampler { return alwaysOff{} }
