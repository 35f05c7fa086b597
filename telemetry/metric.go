// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry // import "github.com/signalfold/otelkit/telemetry"

import (
	"time"

	"github.com/signalfold/otelkit/attribute"
)

// PointKind distinguishes the aggregation shape of a metric point.
type PointKind int

const (
	PointKindGauge PointKind = iota
	PointKindSum
)

func (k PointKind) String() string {
	if k == PointKindSum {
		return "sum"
	}
	return "gauge"
}

// Point is one collected measurement. Aggregation math happens upstream in
// the producer; the pipeline only moves points.
type Point struct {
	Name       string
	Unit       string
	Kind       PointKind
	Monotonic  bool
	StartTime  time.Time
	Time       time.Time
	Value      float64
	Attributes attribute.Set
}

// Metrics is one producer collection: the batch of points gathered in a
// single Produce call, tagged with the scope and resource they belong to.
// It is the unit flowing through the metric export pipeline.
type Metrics struct {
	Resource *Resource
	Scope    Scope
	Points   []Point
}

// PointCount returns the number of points in the collection.
func (m Metrics) PointCount() int { return len(m.Points) }
