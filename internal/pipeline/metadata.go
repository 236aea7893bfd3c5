package pipeline

import (
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindBool Kind = iota + 1
	KindFloat
	KindString
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	default:
		return "invalid"
	}
}

// Value is a tagged metadata value. The zero Value is invalid and is never
// stored by Metadata.Set.
type Value struct {
	kind Kind
	b    bool
	f    float64
	s    string
	i    int
}

// BoolValue wraps a boolean.
func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }

// FloatValue wraps a float.
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

// StringValue wraps a string.
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// IntValue wraps an integer.
func IntValue(v int) Value { return Value{kind: KindInt, i: v} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean and true if v holds a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsFloat returns the float and true if v holds a float.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string and true if v holds a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsInt returns the integer and true if v holds an int.
func (v Value) AsInt() (int, bool) { return v.i, v.kind == KindInt }

// String formats v for logs.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', 3, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindInt:
		return strconv.Itoa(v.i)
	default:
		return "<invalid>"
	}
}

// Metadata is an insertion-ordered mapping of string keys to Values.
//
// Lookups are by key. Setting an existing key overwrites the value and
// keeps the key's original position, so Keys() is stable for printing.
// Metadata is not safe for concurrent mutation; steps clone a record
// before writing to it.
type Metadata struct {
	keys   []string
	values map[string]Value
}

// NewMetadata returns an empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]Value)}
}

// Set stores v under key.
func (m *Metadata) Set(key string, v Value) {
	if v.kind == 0 {
		panic(fmt.Sprintf("pipeline: invalid metadata value for key %q", key))
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the raw value stored under key.
func (m *Metadata) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Bool returns the value under key if it is a bool.
func (m *Metadata) Bool(key string) (bool, bool) {
	v, _ := m.Get(key)
	return v.AsBool()
}

// Float returns the value under key if it is a float.
func (m *Metadata) Float(key string) (float64, bool) {
	v, _ := m.Get(key)
	return v.AsFloat()
}

// String returns the value under key if it is a string.
func (m *Metadata) String(key string) (string, bool) {
	v, _ := m.Get(key)
	return v.AsString()
}

// Int returns the value under key if it is an int.
func (m *Metadata) Int(key string) (int, bool) {
	v, _ := m.Get(key)
	return v.AsInt()
}

// Has reports whether key is present.
func (m *Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns an independent copy.
func (m *Metadata) Clone() *Metadata {
	c := NewMetadata()
	if m == nil {
		return c
	}
	c.keys = append(c.keys, m.keys...)
	for k, v := range m.values {
		c.values[k] = v
	}
	return c
}
