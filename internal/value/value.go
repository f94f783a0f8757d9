// Package value defines the closed value algebra exposed to documents as
// named inputs, and the bridge that converts arbitrary Go data into it.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindArray
	KindDict
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	default:
		return "unknown"
	}
}

// Value is one of none, bool, int, float, str, array or dict. The zero
// Value is none. Values are immutable once built.
type Value struct {
	kind Kind
	data interface{}
}

// None returns the none value.
func None() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, data: b} }

// Int wraps i.
func Int(i int64) Value { return Value{kind: KindInt, data: i} }

// Float wraps f.
func Float(f float64) Value { return Value{kind: KindFloat, data: f} }

// Str wraps s.
func Str(s string) Value { return Value{kind: KindStr, data: s} }

// Array wraps items. The slice is copied.
func Array(items ...Value) Value {
	return Value{kind: KindArray, data: append([]Value{}, items...)}
}

// Dict wraps entries. The map is copied.
func Dict(entries map[string]Value) Value {
	m := make(map[string]Value, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return Value{kind: KindDict, data: m}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is none.
func (v Value) IsNone() bool { return v.kind == KindNone }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.data.(bool)
	return b, ok && v.kind == KindBool
}

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) {
	i, ok := v.data.(int64)
	return i, ok && v.kind == KindInt
}

// AsFloat returns the float payload.
func (v Value) AsFloat() (float64, bool) {
	f, ok := v.data.(float64)
	return f, ok && v.kind == KindFloat
}

// AsStr returns the string payload.
func (v Value) AsStr() (string, bool) {
	s, ok := v.data.(string)
	return s, ok && v.kind == KindStr
}

// Len returns the number of elements of an array or entries of a dict.
func (v Value) Len() int {
	switch d := v.data.(type) {
	case []Value:
		return len(d)
	case map[string]Value:
		return len(d)
	default:
		return 0
	}
}

// Index returns the i-th array element.
func (v Value) Index(i int) (Value, bool) {
	items, ok := v.data.([]Value)
	if !ok || i < 0 || i >= len(items) {
		return Value{}, false
	}
	return items[i], true
}

// Items returns a copy of the array elements.
func (v Value) Items() []Value {
	items, _ := v.data.([]Value)
	return append([]Value(nil), items...)
}

// Get returns the dict entry under key.
func (v Value) Get(key string) (Value, bool) {
	m, ok := v.data.(map[string]Value)
	if !ok {
		return Value{}, false
	}
	e, ok := m[key]
	return e, ok
}

// Keys returns the dict keys in sorted order.
func (v Value) Keys() []string {
	m, _ := v.data.(map[string]Value)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality. Dict entry order is irrelevant; floats
// compare by value, so NaN never equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindArray:
		a, b := v.data.([]Value), o.data.([]Value)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindDict:
		a, b := v.data.(map[string]Value), o.data.(map[string]Value)
		if len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return v.data == o.data
	}
}

// Native converts v to plain Go data: nil, bool, int64, float64, string,
// []interface{} and map[string]interface{}.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindArray:
		items := v.data.([]Value)
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = item.Native()
		}
		return out
	case KindDict:
		m := v.data.(map[string]Value)
		out := make(map[string]interface{}, len(m))
		for k, item := range m {
			out[k] = item.Native()
		}
		return out
	default:
		return v.data
	}
}

// String renders v in document syntax, e.g. ("a": 1, "b": (true, none, "x")).
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindNone:
		b.WriteString("none")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.data.(bool)))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.data.(int64), 10))
	case KindFloat:
		f := v.data.(float64)
		switch {
		case math.IsNaN(f):
			b.WriteString("float.nan")
		case math.IsInf(f, 1):
			b.WriteString("float.inf")
		case math.IsInf(f, -1):
			b.WriteString("-float.inf")
		default:
			s := strconv.FormatFloat(f, 'g', -1, 64)
			if !strings.ContainsAny(s, ".eE") {
				s += ".0"
			}
			b.WriteString(s)
		}
	case KindStr:
		b.WriteString(strconv.Quote(v.data.(string)))
	case KindArray:
		items := v.data.([]Value)
		b.WriteByte('(')
		for i, item := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b)
		}
		if len(items) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case KindDict:
		keys := v.Keys()
		if len(keys) == 0 {
			b.WriteString("(:)")
			return
		}
		m := v.data.(map[string]Value)
		b.WriteByte('(')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			m[k].write(b)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<%s>", v.kind)
	}
}
