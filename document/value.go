// Package document provides an order-preserving in-memory model for
// JSON-compatible documents. Object members keep the insertion order of the
// source encoding, which downstream tokenization depends on for deterministic
// output.
package document

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies the type of a Value.
type Kind int

const (
	// KindNull is the JSON null value
	KindNull Kind = iota
	// KindBool is a boolean value
	KindBool
	// KindInt is an integral number
	KindInt
	// KindFloat is a floating-point number
	KindFloat
	// KindString is a string value
	KindString
	// KindObject is an object with ordered members
	KindObject
	// KindArray is an array of values
	KindArray
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Member is a single object member. Objects hold members as an ordered slice
// rather than a map so that key order survives decoding. Duplicate keys are
// retained as separate members.
type Member struct {
	Key   string
	Value Value
}

// Value is one node of a document tree. The zero value is JSON null.
// Values are immutable once constructed.
type Value struct {
	kind    Kind
	boolVal bool
	intVal  int64
	fltVal  float64
	strVal  string
	members []Member
	elems   []Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolVal: b} }

// Int returns an integral number value.
func Int(i int64) Value { return Value{kind: KindInt, intVal: i} }

// Float returns a floating-point number value.
func Float(f float64) Value { return Value{kind: KindFloat, fltVal: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, strVal: s} }

// Object returns an object value with the given ordered members.
func Object(members ...Member) Value { return Value{kind: KindObject, members: members} }

// Array returns an array value with the given elements.
func Array(elems ...Value) Value { return Value{kind: KindArray, elems: elems} }

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether the value is a terminal node (null, bool, number,
// or string). Objects and arrays are composite.
func (v Value) IsScalar() bool {
	return v.kind != KindObject && v.kind != KindArray
}

// BoolVal returns the boolean payload. Valid only for KindBool.
func (v Value) BoolVal() bool { return v.boolVal }

// IntVal returns the integer payload. Valid only for KindInt.
func (v Value) IntVal() int64 { return v.intVal }

// FloatVal returns the float payload. For KindInt it returns the integer
// widened to float64.
func (v Value) FloatVal() float64 {
	if v.kind == KindInt {
		return float64(v.intVal)
	}
	return v.fltVal
}

// StringVal returns the string payload. Valid only for KindString.
func (v Value) StringVal() string { return v.strVal }

// Members returns the ordered object members. Valid only for KindObject.
func (v Value) Members() []Member { return v.members }

// Elems returns the array elements. Valid only for KindArray.
func (v Value) Elems() []Value { return v.elems }

// Lookup returns the value of the first member with the given key.
func (v Value) Lookup(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Interface converts the value to the equivalent encoding/json
// representation (map order is lost; intended for interop only).
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindFloat:
		return v.fltVal
	case KindString:
		return v.strVal
	case KindObject:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	case KindArray:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

// Equal reports deep equality of two values. Int and float values compare
// unequal even when numerically equal; object member order is significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolVal == o.boolVal
	case KindInt:
		return v.intVal == o.intVal
	case KindFloat:
		return v.fltVal == o.fltVal
	case KindString:
		return v.strVal == o.strVal
	case KindObject:
		if len(v.members) != len(o.members) {
			return false
		}
		for i := range v.members {
			if v.members[i].Key != o.members[i].Key {
				return false
			}
			if !v.members[i].Value.Equal(o.members[i].Value) {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON encodes the value, writing object members in their stored
// order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.boolVal))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.intVal, 10))
	case KindFloat:
		buf.WriteString(strconv.FormatFloat(v.fltVal, 'g', -1, 64))
	case KindString:
		encoded, err := json.Marshal(v.strVal)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}
