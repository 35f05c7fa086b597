// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package otlphttp // import "github.com/signalfold/otelkit/exporter/otlphttp"

import (
	"time"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/telemetry"
)

// The payload builders shape batches into JSON mirroring the OTLP field
// names: items are grouped by resource, then by instrumentation scope.

type groupKey struct {
	res   *telemetry.Resource
	scope telemetry.Scope
}

func groupBy[T any](items []T, key func(T) groupKey) ([]groupKey, map[groupKey][]T) {
	var order []groupKey
	groups := make(map[groupKey][]T)
	for _, item := range items {
		k := key(item)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], item)
	}
	return order, groups
}

func anyValue(v attribute.Value) map[string]any {
	switch v.Type() {
	case attribute.TypeString:
		return map[string]any{"stringValue": v.AsString()}
	case attribute.TypeInt64:
		return map[string]any{"intValue": v.AsInt64()}
	case attribute.TypeFloat64:
		return map[string]any{"doubleValue": v.AsFloat64()}
	case attribute.TypeBool:
		return map[string]any{"boolValue": v.AsBool()}
	case attribute.TypeStringSlice:
		vals := make([]map[string]any, 0, len(v.AsStringSlice()))
		for _, s := range v.AsStringSlice() {
			vals = append(vals, map[string]any{"stringValue": s})
		}
		return map[string]any{"arrayValue": map[string]any{"values": vals}}
	case attribute.TypeInt64Slice:
		vals := make([]map[string]any, 0, len(v.AsInt64Slice()))
		for _, i := range v.AsInt64Slice() {
			vals = append(vals, map[string]any{"intValue": i})
		}
		return map[string]any{"arrayValue": map[string]any{"values": vals}}
	case attribute.TypeFloat64Slice:
		vals := make([]map[string]any, 0, len(v.AsFloat64Slice()))
		for _, f := range v.AsFloat64Slice() {
			vals = append(vals, map[string]any{"doubleValue": f})
		}
		return map[string]any{"arrayValue": map[string]any{"values": vals}}
	case attribute.TypeBoolSlice:
		vals := make([]map[string]any, 0, len(v.AsBoolSlice()))
		for _, b := range v.AsBoolSlice() {
			vals = append(vals, map[string]any{"boolValue": b})
		}
		return map[string]any{"arrayValue": map[string]any{"values": vals}}
	}
	return map[string]any{}
}

func keyValues(set attribute.Set) []map[string]any {
	if set.Len() == 0 {
		return nil
	}
	out := make([]map[string]any, 0, set.Len())
	for _, kv := range set.ToSlice() {
		out = append(out, map[string]any{
			"key":   string(kv.Key),
			"value": anyValue(kv.Value),
		})
	}
	return out
}

func resourceBody(r *telemetry.Resource) map[string]any {
	return map[string]any{"attributes": keyValues(r.Attributes())}
}

func scopeBody(s telemetry.Scope) map[string]any {
	return map[string]any{"name": s.Name, "version": s.Version}
}

func unixNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func spansPayload(spans []telemetry.Span) any {
	order, groups := groupBy(spans, func(s telemetry.Span) groupKey {
		return groupKey{res: s.Resource, scope: s.Scope}
	})
	resourceSpans := make([]map[string]any, 0, len(order))
	for _, k := range order {
		body := make([]map[string]any, 0, len(groups[k]))
		for _, s := range groups[k] {
			body = append(body, spanBody(s))
		}
		resourceSpans = append(resourceSpans, map[string]any{
			"resource": resourceBody(k.res),
			"scopeSpans": []map[string]any{{
				"scope": scopeBody(k.scope),
				"spans": body,
			}},
		})
	}
	return map[string]any{"resourceSpans": resourceSpans}
}

func spanBody(s telemetry.Span) map[string]any {
	kind := map[telemetry.SpanKind]int{
		telemetry.SpanKindInternal: 1,
		telemetry.SpanKindServer:   2,
		telemetry.SpanKindClient:   3,
		telemetry.SpanKindProducer: 4,
		telemetry.SpanKindConsumer: 5,
	}[s.Kind]
	out := map[string]any{
		"traceId":           s.SpanContext.TraceID.String(),
		"spanId":            s.SpanContext.SpanID.String(),
		"name":              s.Name,
		"kind":              kind,
		"startTimeUnixNano": unixNanos(s.StartTime),
		"endTimeUnixNano":   unixNanos(s.EndTime),
		"attributes":        keyValues(s.Attributes),
		"status": map[string]any{
			"code":    int(s.Status.Code),
			"message": s.Status.Description,
		},
	}
	if s.Parent.IsValid() {
		out["parentSpanId"] = s.Parent.SpanID.String()
	}
	if len(s.Links) > 0 {
		links := make([]map[string]any, 0, len(s.Links))
		for _, l := range s.Links {
			links = append(links, map[string]any{
				"traceId":    l.SpanContext.TraceID.String(),
				"spanId":     l.SpanContext.SpanID.String(),
				"attributes": keyValues(l.Attributes),
			})
		}
		out["links"] = links
	}
	if s.DroppedAttributes > 0 {
		out["droppedAttributesCount"] = s.DroppedAttributes
	}
	return out
}

func recordsPayload(records []telemetry.Record) any {
	order, groups := groupBy(records, func(r telemetry.Record) groupKey {
		return groupKey{res: r.Resource, scope: r.Scope}
	})
	resourceLogs := make([]map[string]any, 0, len(order))
	for _, k := range order {
		body := make([]map[string]any, 0, len(groups[k]))
		for _, r := range groups[k] {
			body = append(body, recordBody(r))
		}
		resourceLogs = append(resourceLogs, map[string]any{
			"resource": resourceBody(k.res),
			"scopeLogs": []map[string]any{{
				"scope":      scopeBody(k.scope),
				"logRecords": body,
			}},
		})
	}
	return map[string]any{"resourceLogs": resourceLogs}
}

func recordBody(r telemetry.Record) map[string]any {
	out := map[string]any{
		"timeUnixNano":         unixNanos(r.Timestamp),
		"observedTimeUnixNano": unixNanos(r.ObservedTimestamp),
		"severityNumber":       int(r.Severity),
		"severityText":         r.SeverityText,
		"body":                 anyValue(r.Body),
		"attributes":           keyValues(r.Attributes),
	}
	if r.TraceID.IsValid() {
		out["traceId"] = r.TraceID.String()
		out["spanId"] = r.SpanID.String()
	}
	return out
}

func metricsPayload(collections []telemetry.Metrics) any {
	resourceMetrics := make([]map[string]any, 0, len(collections))
	for _, m := range collections {
		points := make([]map[string]any, 0, len(m.Points))
		for _, p := range m.Points {
			points = append(points, pointBody(p))
		}
		resourceMetrics = append(resourceMetrics, map[string]any{
			"resource": resourceBody(m.Resource),
			"scopeMetrics": []map[string]any{{
				"scope":   scopeBody(m.Scope),
				"metrics": points,
			}},
		})
	}
	return map[string]any{"resourceMetrics": resourceMetrics}
}

func pointBody(p telemetry.Point) map[string]any {
	dataPoint := map[string]any{
		"startTimeUnixNano": unixNanos(p.StartTime),
		"timeUnixNano":      unixNanos(p.Time),
		"asDouble":          p.Value,
		"attributes":        keyValues(p.Attributes),
	}
	out := map[string]any{
		"name": p.Name,
		"unit": p.Unit,
	}
	switch p.Kind {
	case telemetry.PointKindSum:
		out["sum"] = map[string]any{
			"isMonotonic": p.Monotonic,
			"dataPoints":  []map[string]any{dataPoint},
		}
	default:
		out["gauge"] = map[string]any{
			"dataPoints": []map[string]any{dataPoint},
		}
	}
	return out
}
