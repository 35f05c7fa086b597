// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package console // import "github.com/signalfold/otelkit/exporter/console"

import (
	"time"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/telemetry"
)

// attrJSON renders an attribute set as a plain map. The switch over the
// value type is exhaustive; adding a variant to attribute.Type must extend
// this function.
func attrJSON(set attribute.Set) map[string]any {
	if set.Len() == 0 {
		return nil
	}
	out := make(map[string]any, set.Len())
	for _, kv := range set.ToSlice() {
		out[string(kv.Key)] = valueJSON(kv.Value)
	}
	return out
}

func valueJSON(v attribute.Value) any {
	switch v.Type() {
	case attribute.TypeString:
		return v.AsString()
	case attribute.TypeInt64:
		return v.AsInt64()
	case attribute.TypeFloat64:
		return v.AsFloat64()
	case attribute.TypeBool:
		return v.AsBool()
	case attribute.TypeStringSlice:
		return v.AsStringSlice()
	case attribute.TypeInt64Slice:
		return v.AsInt64Slice()
	case attribute.TypeFloat64Slice:
		return v.AsFloat64Slice()
	case attribute.TypeBoolSlice:
		return v.AsBoolSlice()
	}
	return nil
}

func timeJSON(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func scopeJSON(s telemetry.Scope) map[string]any {
	return map[string]any{"name": s.Name, "version": s.Version}
}

func resourceJSON(r *telemetry.Resource) map[string]any {
	if r == nil {
		return nil
	}
	return attrJSON(r.Attributes())
}

func spanJSON(s telemetry.Span) any {
	out := map[string]any{
		"traceId":    s.SpanContext.TraceID.String(),
		"spanId":     s.SpanContext.SpanID.String(),
		"name":       s.Name,
		"kind":       s.Kind.String(),
		"startTime":  timeJSON(s.StartTime),
		"endTime":    timeJSON(s.EndTime),
		"attributes": attrJSON(s.Attributes),
		"status":     map[string]any{"code": s.Status.Code.String(), "description": s.Status.Description},
		"scope":      scopeJSON(s.Scope),
		"resource":   resourceJSON(s.Resource),
	}
	if s.Parent.IsValid() {
		out["parentSpanId"] = s.Parent.SpanID.String()
	}
	if len(s.Links) > 0 {
		links := make([]map[string]any, len(s.Links))
		for i, l := range s.Links {
			links[i] = map[string]any{
				"traceId":    l.SpanContext.TraceID.String(),
				"spanId":     l.SpanContext.SpanID.String(),
				"attributes": attrJSON(l.Attributes),
			}
		}
		out["links"] = links
	}
	if s.DroppedAttributes > 0 {
		out["droppedAttributes"] = s.DroppedAttributes
	}
	return out
}

func recordJSON(r telemetry.Record) any {
	out := map[string]any{
		"timestamp":         timeJSON(r.Timestamp),
		"observedTimestamp": timeJSON(r.ObservedTimestamp),
		"severityNumber":    int(r.Severity),
		"severityText":      r.SeverityText,
		"body":              valueJSON(r.Body),
		"attributes":        attrJSON(r.Attributes),
		"scope":             scopeJSON(r.Scope),
		"resource":          resourceJSON(r.Resource),
	}
	if r.TraceID.IsValid() {
		out["traceId"] = r.TraceID.String()
		out["spanId"] = r.SpanID.String()
	}
	return out
}

func metricsJSON(m telemetry.Metrics) any {
	points := make([]map[string]any, len(m.Points))
	for i, p := range m.Points {
		points[i] = map[string]any{
			"name":       p.Name,
			"unit":       p.Unit,
			"kind":       p.Kind.String(),
			"monotonic":  p.Monotonic,
			"startTime":  timeJSON(p.StartTime),
			"time":       timeJSON(p.Time),
			"value":      p.Value,
			"attributes": attrJSON(p.Attributes),
		}
	}
	return map[string]any{
		"scope":    scopeJSON(m.Scope),
		"resource": resourceJSON(m.Resource),
		"points":   points,
	}
}
