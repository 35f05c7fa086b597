// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package attribute // import "github.com/signalfold/otelkit/attribute"

// Convenience constructors for KeyValue pairs.

// String returns a string-typed KeyValue.
func String(k, v string) KeyValue {
	return KeyValue{Key: Key(k), Value: StringValue(v)}
}

// Int64 returns an int64-typed KeyValue.
func Int64(k string, v int64) KeyValue {
	return KeyValue{Key: Key(k), Value: Int64Value(v)}
}

// Int returns an int64-typed KeyValue from an int.
func Int(k string, v int) KeyValue {
	return Int64(k, int64(v))
}

// Float64 returns a float64-typed KeyValue.
func Float64(k string, v float64) KeyValue {
	return KeyValue{Key: Key(k), Value: Float64Value(v)}
}

// Bool returns a bool-typed KeyValue.
func Bool(k string, v bool) KeyValue {
	return KeyValue{Key: Key(k), Value: BoolValue(v)}
}

// StringSlice returns a string-slice-typed KeyValue.
func StringSlice(k string, v []string) KeyValue {
	return KeyValue{Key: Key(k), Value: StringSliceValue(v)}
}

// Int64Slice returns an int64-slice-typed KeyValue.
func Int64Slice(k string, v []int64) KeyValue {
	return KeyValue{Key: Key(k), Value: Int64SliceValue(v)}
}

// Float64Slice returns a float64-slice-typed KeyValue.
func Float64Slice(k string, v []float64) KeyValue {
	return KeyValue{Key: Key(k), Value: Float64SliceValue(v)}
}

// BoolSlice returns a bool-slice-typed KeyValue.
func BoolSlice(k string, v []bool) KeyValue {
	return KeyValue{Key: Key(k), Value: BoolSliceValue(v)}
}
