package value

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// Atom is a symbolic scalar. It converts to a string value holding its name.
type Atom string

// Warning records a part of the input that could not be represented and was
// degraded to none or dropped.
type Warning struct {
	Path   string // location in the input, e.g. $.items[2]
	Reason string
}

// String renders the warning on one line.
func (w Warning) String() string {
	return w.Path + ": " + w.Reason
}

// Convert translates a Go value into the value algebra. It never fails:
// unsupported shapes become none and map entries with keys that are not
// string-like are dropped. Every such degradation is reported as a Warning.
func Convert(term interface{}) (Value, []Warning) {
	c := &converter{}
	v := c.convert(term, "$")
	return v, c.warnings
}

type converter struct {
	warnings []Warning
}

func (c *converter) warn(path, format string, args ...interface{}) {
	c.warnings = append(c.warnings, Warning{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func (c *converter) convert(term interface{}, path string) Value {
	switch t := term.(type) {
	case nil:
		return None()
	case Value:
		return t
	case bool:
		return Bool(t)

	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return c.unsigned(uint64(t), path)
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return c.unsigned(t, path)

	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
		c.warn(path, "unparsable number %q", t.String())
		return None()

	case string:
		return c.text(t, path)
	case Atom:
		return c.text(string(t), path)
	case []byte:
		if !utf8.Valid(t) {
			c.warn(path, "binary data is not valid utf-8")
			return None()
		}
		return Str(string(t))

	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = c.convert(item, index(path, i))
		}
		return Value{kind: KindArray, data: items}
	case []Value:
		return Array(t...)
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = c.text(s, index(path, i))
		}
		return Value{kind: KindArray, data: items}
	case []int:
		items := make([]Value, len(t))
		for i, n := range t {
			items[i] = Int(int64(n))
		}
		return Value{kind: KindArray, data: items}
	case []int64:
		items := make([]Value, len(t))
		for i, n := range t {
			items[i] = Int(n)
		}
		return Value{kind: KindArray, data: items}
	case []float64:
		items := make([]Value, len(t))
		for i, f := range t {
			items[i] = Float(f)
		}
		return Value{kind: KindArray, data: items}
	case []bool:
		items := make([]Value, len(t))
		for i, b := range t {
			items[i] = Bool(b)
		}
		return Value{kind: KindArray, data: items}

	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			if !utf8.ValidString(k) {
				c.warn(path, "dropped entry with non utf-8 key %q", k)
				continue
			}
			m[k] = c.convert(item, field(path, k))
		}
		return Value{kind: KindDict, data: m}
	case map[string]string:
		m := make(map[string]Value, len(t))
		for k, s := range t {
			if !utf8.ValidString(k) {
				c.warn(path, "dropped entry with non utf-8 key %q", k)
				continue
			}
			m[k] = c.text(s, field(path, k))
		}
		return Value{kind: KindDict, data: m}
	case map[string]Value:
		return Dict(t)
	case []map[string]interface{}:
		items := make([]Value, len(t))
		for i, m := range t {
			items[i] = c.convert(m, index(path, i))
		}
		return Value{kind: KindArray, data: items}
	case map[interface{}]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			key, ok := keyString(k)
			if !ok {
				c.warn(path, "dropped entry with %T key %v", k, k)
				continue
			}
			m[key] = c.convert(item, field(path, key))
		}
		return Value{kind: KindDict, data: m}

	case encoding.TextMarshaler:
		text, err := t.MarshalText()
		if err != nil {
			c.warn(path, "%T: %v", term, err)
			return None()
		}
		if !utf8.Valid(text) {
			c.warn(path, "%T text is not valid utf-8", term)
			return None()
		}
		return Str(string(text))

	default:
		c.warn(path, "unsupported %T", term)
		return None()
	}
}

func (c *converter) unsigned(u uint64, path string) Value {
	if u > math.MaxInt64 {
		c.warn(path, "integer %d overflows int64", u)
		return None()
	}
	return Int(int64(u))
}

func (c *converter) text(s, path string) Value {
	if !utf8.ValidString(s) {
		c.warn(path, "string is not valid utf-8")
		return None()
	}
	return Str(s)
}

// keyString reduces a map key to a string when it is string-like.
func keyString(k interface{}) (string, bool) {
	switch t := k.(type) {
	case string:
		return t, utf8.ValidString(t)
	case Atom:
		return string(t), utf8.ValidString(string(t))
	default:
		return "", false
	}
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func field(path, key string) string {
	return path + "." + key
}
