// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	assert.Equal(t, "x", StringValue("x").AsString())
	assert.Equal(t, TypeString, StringValue("x").Type())

	assert.Equal(t, int64(-7), Int64Value(-7).AsInt64())
	assert.Equal(t, 3.14, Float64Value(3.14).AsFloat64())
	assert.True(t, BoolValue(true).AsBool())
	assert.False(t, BoolValue(false).AsBool())

	assert.Equal(t, []string{"a", "b"}, StringSliceValue([]string{"a", "b"}).AsStringSlice())
	assert.Equal(t, []int64{1, 2}, Int64SliceValue([]int64{1, 2}).AsInt64Slice())
	assert.Equal(t, []float64{1.5}, Float64SliceValue([]float64{1.5}).AsFloat64Slice())
	assert.Equal(t, []bool{true}, BoolSliceValue([]bool{true}).AsBoolSlice())

	assert.Equal(t, TypeInvalid, Value{}.Type())
}

func TestSliceValuesCopyInput(t *testing.T) {
	in := []string{"a", "b"}
	v := StringSliceValue(in)
	in[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, v.AsStringSlice())
}

func TestValueEmit(t *testing.T) {
	assert.Equal(t, "hi", StringValue("hi").Emit())
	assert.Equal(t, "-7", Int64Value(-7).Emit())
	assert.Equal(t, "2.5", Float64Value(2.5).Emit())
	assert.Equal(t, "true", BoolValue(true).Emit())
	assert.Equal(t, "[a b]", StringSliceValue([]string{"a", "b"}).Emit())
	assert.Equal(t, "<invalid>", Value{}.Emit())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, StringValue("a").Equal(StringValue("a")))
	assert.False(t, StringValue("a").Equal(StringValue("b")))
	assert.False(t, StringValue("1").Equal(Int64Value(1)))
	assert.True(t, Int64SliceValue([]int64{1, 2}).Equal(Int64SliceValue([]int64{1, 2})))
	assert.False(t, Int64SliceValue([]int64{1}).Equal(Int64SliceValue([]int64{1, 2})))
	assert.True(t, Value{}.Equal(Value{}))
}

func TestKeyValueValid(t *testing.T) {
	assert.True(t, String("k", "v").Valid())
	assert.False(t, String("", "v").Valid())
	assert.False(t, KeyValue{Key: "k"}.Valid())
}

func TestKeyValueString(t *testing.T) {
	assert.Equal(t, "k=v", String("k", "v").String())
	assert.Equal(t, "n=42", Int("n", 42).String())
}

func TestNewSetSortsAndDeduplicates(t *testing.T) {
	s := NewSet(
		String("b", "first"),
		String("a", "x"),
		String("b", "second"),
	)
	require.Equal(t, 2, s.Len())
	// Sorted by key, later duplicate wins.
	require.Equal(t, []KeyValue{
		String("a", "x"),
		String("b", "second"),
	}, s.ToSlice())
}

func TestNewSetDiscardsInvalid(t *testing.T) {
	s := NewSet(
		String("", "dropped"),
		KeyValue{Key: "novalue"},
		String("kept", "v"),
	)
	require.Equal(t, 1, s.Len())
	assert.True(t, s.HasValue("kept"))
}

func TestSetValue(t *testing.T) {
	s := NewSet(Int("n", 1), String("s", "v"))

	v, ok := s.Value("n")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.AsInt64())

	_, ok = s.Value("missing")
	assert.False(t, ok)
	assert.False(t, EmptySet().HasValue("n"))
}

func TestSetEquals(t *testing.T) {
	a := NewSet(String("k", "v"), Int("n", 1))
	b := NewSet(Int("n", 1), String("k", "v"))
	c := NewSet(Int("n", 2), String("k", "v"))

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(EmptySet()))
	assert.True(t, EmptySet().Equals(NewSet()))
}

func TestSetString(t *testing.T) {
	s := NewSet(String("b", "2"), String("a", "1"))
	assert.Equal(t, "{a=1,b=2}", s.String())
}

func TestIntConstructor(t *testing.T) {
	kv := Int("n", 42)
	assert.Equal(t, TypeInt64, kv.Value.Type())
	assert.Equal(t, int64(42), kv.Value.AsInt64())
}
