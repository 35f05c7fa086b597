// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package trace // import "github.com/signalfold/otelkit/trace"

import (
	"sync"
	"time"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/telemetry"
)

// Span is the mutable, in-flight span handed to application code. It is
// safe for concurrent use; End freezes it and hands an immutable snapshot to
// the provider's processors. Mutations after End are ignored.
type Span struct {
	provider *TracerProvider
	scope    telemetry.Scope

	mu           sync.Mutex
	sc           telemetry.SpanContext
	parent       telemetry.SpanContext
	name         string
	kind         telemetry.SpanKind
	startTime    time.Time
	attrs        []attribute.KeyValue
	droppedAttrs int
	links        []telemetry.Link
	status       telemetry.Status
	recording    bool
	ended        bool
}

func newNonRecordingSpan(sc telemetry.SpanContext) *Span {
	return &Span{sc: sc}
}

// SpanContext returns the span's identity; valid on non-recording spans too.
func (s *Span) SpanContext() telemetry.SpanContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sc
}

// IsRecording reports whether the span records events; false after End and
// for spans the sampler dropped.
func (s *Span) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording && !s.ended
}

// SetName renames the span and notifies the processors.
func (s *Span) SetName(name string) {
	s.mu.Lock()
	if !s.recording || s.ended {
		s.mu.Unlock()
		return
	}
	s.name = name
	snap := s.snapshotLocked()
	processors := s.provider.processors
	s.mu.Unlock()

	for _, p := range processors {
		p.OnSetName(snap, name)
	}
}

// SetAttributes adds attributes, subject to the provider's per-span limit.
func (s *Span) SetAttributes(kvs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording || s.ended {
		return
	}
	s.addAttributesLocked(kvs)
}

func (s *Span) addAttributes(kvs []attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addAttributesLocked(kvs)
}

func (s *Span) addAttributesLocked(kvs []attribute.KeyValue) {
	limit := defaultSpanAttributeLimit
	if s.provider != nil {
		limit = s.provider.attrLimit
	}
	for _, kv := range kvs {
		if len(s.attrs) >= limit {
			s.droppedAttrs++
			continue
		}
		s.attrs = append(s.attrs, kv)
	}
}

// SetStatus records the span outcome.
func (s *Span) SetStatus(code telemetry.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording || s.ended {
		return
	}
	s.status = telemetry.Status{Code: code, Description: description}
}

// AddLink attaches a link to another span context.
func (s *Span) AddLink(link telemetry.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording || s.ended {
		return
	}
	s.links = append(s.links, link)
}

// End freezes the span and routes the snapshot to the provider's
// processors. Only the first End takes effect.
func (s *Span) End() {
	s.EndWithTimestamp(time.Now())
}

// EndWithTimestamp is End with an explicit end time.
func (s *Span) EndWithTimestamp(ts time.Time) {
	s.mu.Lock()
	if !s.recording || s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	snap := s.snapshotLocked()
	snap.EndTime = ts
	processors := s.provider.processors
	s.mu.Unlock()

	for _, p := range processors {
		p.OnEnd(snap)
	}
}

func (s *Span) snapshot() telemetry.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked builds the frozen view. Callers hold s.mu.
func (s *Span) snapshotLocked() telemetry.Span {
	var res *telemetry.Resource
	if s.provider != nil {
		res = s.provider.resource
	}
	links := make([]telemetry.Link, len(s.links))
	copy(links, s.links)
	return telemetry.Span{
		SpanContext:       s.sc,
		Parent:            s.parent,
		Name:              s.name,
		Kind:              s.kind,
		StartTime:         s.startTime,
		Attributes:        attribute.NewSet(s.attrs...),
		Links:             links,
		Status:            s.status,
		Scope:             s.scope,
		Resource:          res,
		DroppedAttributes: s.droppedAttrs,
	}
}
