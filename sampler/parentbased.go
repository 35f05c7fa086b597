// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package sampler // import "github.com/signalfold/otelkit/sampler"

import (
	"fmt"

	"github.com/signalfold/otelkit/telemetry"
)

type parentBased struct {
	root Sampler

	remoteSampled    Sampler
	remoteNotSampled Sampler
	localSampled     Sampler
	localNotSampled  Sampler
}

// ParentBasedOption overrides one cell of the parent delegation matrix.
type ParentBasedOption func(*parentBased)

// WithRemoteParentSampled sets the sampler used when the parent is remote
// and was sampled.
func WithRemoteParentSampled(s Sampler) ParentBasedOption {
	return func(pb *parentBased) { pb.remoteSampled = s }
}

// WithRemoteParentNotSampled sets the sampler used when the parent is remote
// and was not sampled.
func WithRemoteParentNotSampled(s Sampler) ParentBasedOption {
	return func(pb *parentBased) { pb.remoteNotSampled = s }
}

// WithLocalParentSampled sets the sampler used when the parent is local and
// was sampled.
func WithLocalParentSampled(s Sampler) ParentBasedOption {
	return func(pb *parentBased) { pb.localSampled = s }
}

// WithLocalParentNotSampled sets the sampler used when the parent is local
// and was not sampled.
func WithLocalParentNotSampled(s Sampler) ParentBasedOption {
	return func(pb *parentBased) { pb.localNotSampled = s }
}

// NewParentBased returns a sampler that delegates to root for root spans and
// otherwise follows the parent's decision: sampled parents delegate to
// AlwaysOn, unsampled parents to AlwaysOff, unless overridden per quadrant
// of the {remote, local} x {sampled, not sampled} matrix.
func NewParentBased(root Sampler, opts ...ParentBasedOption) Sampler {
	pb := &parentBased{
		root:             root,
		remoteSampled:    AlwaysOn(),
		remoteNotSampled: AlwaysOff(),
		localSampled:     AlwaysOn(),
		localNotSampled:  AlwaysOff(),
	}
	for _, opt := range opts {
		opt(pb)
	}
	return pb
}

func (pb *parentBased) ShouldSample(p Parameters) Result {
	psc := telemetry.SpanContextFromContext(p.ParentContext)
	if !psc.IsValid() {
		return pb.root.ShouldSample(p)
	}
	switch {
	case psc.Remote && psc.Sampled:
		return pb.remoteSampled.ShouldSample(p)
	case psc.Remote && !psc.Sampled:
		return pb.remoteNotSampled.ShouldSample(p)
	case psc.Sampled:
		return pb.localSampled.ShouldSample(p)
	default:
		return pb.localNotSampled.ShouldSample(p)
	}
}

func (pb *parentBased) Description() string {
	return fmt.Sprintf("ParentBased{root:%s,remoteParentSampled:%s,remoteParentNotSampled:%s,localParentSampled:%s,localParentNotSampled:%s}",
		pb.root.Description(),
		pb.remoteSampled.Description(),
		pb.remoteNotSampled.Description(),
		pb.localSampled.Description(),
		pb.localNotSampled.Description())
}
