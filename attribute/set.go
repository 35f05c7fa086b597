// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package attribute // import "github.com/signalfold/otelkit/attribute"

import (
	"sort"
	"strings"
)

// Set is an immutable, deduplicated collection of attributes sorted by key.
// Duplicate keys in the input are resolved last-write-wins; insertion order
// is otherwise irrelevant.
type Set struct {
	kvs []KeyValue
}

// EmptySet returns a Set with no attributes.
func EmptySet() Set { return Set{} }

// NewSet builds a Set from kvs. Invalid pairs (empty key or invalid value)
// are discarded.
func NewSet(kvs ...KeyValue) Set {
	if len(kvs) == 0 {
		return Set{}
	}
	// Stable sort keeps the later of two equal keys reachable below.
	sorted := make([]KeyValue, 0, len(kvs))
	for _, kv := range kvs {
		if kv.Valid() {
			sorted = append(sorted, kv)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	out := sorted[:0]
	for i, kv := range sorted {
		if i+1 < len(sorted) && sorted[i+1].Key == kv.Key {
			continue
		}
		out = append(out, kv)
	}
	return Set{kvs: out}
}

// Len returns the number of attributes in the Set.
func (s Set) Len() int { return len(s.kvs) }

// Value returns the value stored for key, if any.
func (s Set) Value(key Key) (Value, bool) {
	i := sort.Search(len(s.kvs), func(i int) bool { return s.kvs[i].Key >= key })
	if i < len(s.kvs) && s.kvs[i].Key == key {
		return s.kvs[i].Value, true
	}
	return Value{}, false
}

// HasValue reports whether key is present in the Set.
func (s Set) HasValue(key Key) bool {
	_, ok := s.Value(key)
	return ok
}

// ToSlice returns the attributes in key order. The returned slice is a copy.
func (s Set) ToSlice() []KeyValue {
	out := make([]KeyValue, len(s.kvs))
	copy(out, s.kvs)
	return out
}

// Equals reports whether both sets contain exactly the same attributes.
func (s Set) Equals(o Set) bool {
	if len(s.kvs) != len(o.kvs) {
		return false
	}
	for i := range s.kvs {
		if s.kvs[i].Key != o.kvs[i].Key || !s.kvs[i].Value.Equal(o.kvs[i].Value) {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, kv := range s.kvs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(kv.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
