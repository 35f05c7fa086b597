// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry // import "github.com/signalfold/otelkit/telemetry"

import "github.com/signalfold/otelkit/attribute"

// Well-known resource attribute keys.
const (
	ServiceNameKey    = attribute.Key("service.name")
	ServiceVersionKey = attribute.Key("service.version")
)

// Resource describes the entity producing telemetry. It is created once per
// process and read-only afterwards; every exported item references it.
type Resource struct {
	attrs attribute.Set
}

// NewResource returns a Resource holding kvs.
func NewResource(kvs ...attribute.KeyValue) *Resource {
	return &Resource{attrs: attribute.NewSet(kvs...)}
}

// DefaultResource returns the fallback Resource used when none is supplied.
func DefaultResource() *Resource {
	return NewResource(attribute.String(string(ServiceNameKey), "unknown_service"))
}

// Attributes returns the resource's attribute set.
func (r *Resource) Attributes() attribute.Set {
	if r == nil {
		return attribute.EmptySet()
	}
	return r.attrs
}

// Merge returns a Resource combining r and o; on key conflict o wins.
func (r *Resource) Merge(o *Resource) *Resource {
	if r == nil {
		return o
	}
	if o == nil {
		return r
	}
	kvs := append(r.attrs.ToSlice(), o.attrs.ToSlice()...)
	return &Resource{attrs: attribute.NewSet(kvs...)}
}

// Scope identifies the instrumentation library that produced an item.
type Scope struct {
	Name    string
	Version string
}
