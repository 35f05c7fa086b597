// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package attribute // import "github.com/signalfold/otelkit/attribute"

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is the kind of value held by a Value.
type Type int

const (
	// TypeInvalid is the zero Type, held by the zero Value.
	TypeInvalid Type = iota
	TypeString
	TypeInt64
	TypeFloat64
	TypeBool
	TypeStringSlice
	TypeInt64Slice
	TypeFloat64Slice
	TypeBoolSlice
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeStringSlice:
		return "string-slice"
	case TypeInt64Slice:
		return "int64-slice"
	case TypeFloat64Slice:
		return "float64-slice"
	case TypeBoolSlice:
		return "bool-slice"
	}
	return "invalid"
}

// Value is a tagged union over the attribute types the wire format supports.
// Consumers switch exhaustively on Type() and read the matching accessor;
// there is no interface{} escape hatch.
type Value struct {
	vtype   Type
	num     uint64
	str     string
	strs    []string
	ints    []int64
	floats  []float64
	bools   []bool
}

// StringValue returns a Value holding s.
func StringValue(s string) Value {
	return Value{vtype: TypeString, str: s}
}

// Int64Value returns a Value holding i.
func Int64Value(i int64) Value {
	return Value{vtype: TypeInt64, num: uint64(i)}
}

// Float64Value returns a Value holding f.
func Float64Value(f float64) Value {
	return Value{vtype: TypeFloat64, num: math.Float64bits(f)}
}

// BoolValue returns a Value holding b.
func BoolValue(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{vtype: TypeBool, num: n}
}

// StringSliceValue returns a Value holding a copy of ss.
func StringSliceValue(ss []string) Value {
	cp := make([]string, len(ss))
	copy(cp, ss)
	return Value{vtype: TypeStringSlice, strs: cp}
}

// Int64SliceValue returns a Value holding a copy of is.
func Int64SliceValue(is []int64) Value {
	cp := make([]int64, len(is))
	copy(cp, is)
	return Value{vtype: TypeInt64Slice, ints: cp}
}

// Float64SliceValue returns a Value holding a copy of fs.
func Float64SliceValue(fs []float64) Value {
	cp := make([]float64, len(fs))
	copy(cp, fs)
	return Value{vtype: TypeFloat64Slice, floats: cp}
}

// BoolSliceValue returns a Value holding a copy of bs.
func BoolSliceValue(bs []bool) Value {
	cp := make([]bool, len(bs))
	copy(cp, bs)
	return Value{vtype: TypeBoolSlice, bools: cp}
}

// Type returns the variant held by the Value.
func (v Value) Type() Type { return v.vtype }

// AsString returns the string held by the Value. It is only meaningful when
// Type() == String; the same applies to the other accessors.
func (v Value) AsString() string { return v.str }

func (v Value) AsInt64() int64 { return int64(v.num) }

func (v Value) AsFloat64() float64 { return math.Float64frombits(v.num) }

func (v Value) AsBool() bool { return v.num == 1 }

func (v Value) AsStringSlice() []string { return v.strs }

func (v Value) AsInt64Slice() []int64 { return v.ints }

func (v Value) AsFloat64Slice() []float64 { return v.floats }

func (v Value) AsBoolSlice() []bool { return v.bools }

// Emit renders the Value for logs and sampler descriptions.
func (v Value) Emit() string {
	switch v.vtype {
	case TypeString:
		return v.str
	case TypeInt64:
		return strconv.FormatInt(v.AsInt64(), 10)
	case TypeFloat64:
		return strconv.FormatFloat(v.AsFloat64(), 'g', -1, 64)
	case TypeBool:
		return strconv.FormatBool(v.AsBool())
	case TypeStringSlice:
		return fmt.Sprintf("%v", v.strs)
	case TypeInt64Slice:
		return fmt.Sprintf("%v", v.ints)
	case TypeFloat64Slice:
		return fmt.Sprintf("%v", v.floats)
	case TypeBoolSlice:
		return fmt.Sprintf("%v", v.bools)
	}
	return "<invalid>"
}

// Equal reports whether two values hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.vtype != o.vtype {
		return false
	}
	switch v.vtype {
	case TypeString:
		return v.str == o.str
	case TypeInt64, TypeFloat64, TypeBool:
		return v.num == o.num
	case TypeStringSlice:
		return sliceEqual(v.strs, o.strs)
	case TypeInt64Slice:
		return sliceEqual(v.ints, o.ints)
	case TypeFloat64Slice:
		return sliceEqual(v.floats, o.floats)
	case TypeBoolSlice:
		return sliceEqual(v.bools, o.bools)
	}
	return true
}

func sliceEqual[E comparable](a, b []E) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Key is an attribute name.
type Key string

// KeyValue is a single attribute.
type KeyValue struct {
	Key   Key
	Value Value
}

// Valid reports whether the KeyValue has a non-empty key and a valid value.
func (kv KeyValue) Valid() bool {
	return kv.Key != "" && kv.Value.Type() != TypeInvalid
}

func (kv KeyValue) String() string {
	var sb strings.Builder
	sb.WriteString(string(kv.Key))
	sb.WriteByte('=')
	sb.WriteString(kv.Value.Emit())
	return sb.String()
}
