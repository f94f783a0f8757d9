package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"none", None(), "none"},
		{"bool", Bool(true), "true"},
		{"int", Int(-42), "-42"},
		{"integral float", Float(3), "3.0"},
		{"float", Float(0.25), "0.25"},
		{"nan", Float(math.NaN()), "float.nan"},
		{"negative infinity", Float(math.Inf(-1)), "-float.inf"},
		{"str", Str("say \"hi\""), `"say \"hi\""`},
		{"empty array", Array(), "()"},
		{"single array", Array(Int(1)), "(1,)"},
		{"empty dict", Dict(nil), "(:)"},
		{
			"nested",
			Dict(map[string]Value{"b": Array(Bool(true), None(), Str("x")), "a": Int(1)}),
			`("a": 1, "b": (true, none, "x"))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestValueAccessors(t *testing.T) {
	v := Dict(map[string]Value{
		"n":    Int(7),
		"list": Array(Str("a"), Float(1.5)),
	})

	assert.Equal(t, KindDict, v.Kind())
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"list", "n"}, v.Keys())

	n, ok := v.Get("n")
	require.True(t, ok)
	i, ok := n.AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(7), i)

	_, ok = n.AsStr()
	assert.False(t, ok)

	list, _ := v.Get("list")
	second, ok := list.Index(1)
	require.True(t, ok)
	f, _ := second.AsFloat()
	assert.Equal(t, 1.5, f)

	_, ok = list.Index(2)
	assert.False(t, ok)
	_, ok = v.Get("missing")
	assert.False(t, ok)
}

func TestValueConstructorsCopy(t *testing.T) {
	items := []Value{Int(1), Int(2)}
	arr := Array(items...)
	items[0] = Int(99)
	first, _ := arr.Index(0)
	assert.True(t, first.Equal(Int(1)))

	m := map[string]Value{"k": Str("v")}
	dict := Dict(m)
	m["k"] = Str("changed")
	delete(m, "k")
	got, ok := dict.Get("k")
	require.True(t, ok)
	assert.True(t, got.Equal(Str("v")))

	out := arr.Items()
	out[1] = None()
	second, _ := arr.Index(1)
	assert.True(t, second.Equal(Int(2)))
}

func TestValueEqual(t *testing.T) {
	assert.True(t, None().Equal(Value{}))
	assert.False(t, Int(1).Equal(Float(1)))
	assert.False(t, Float(math.NaN()).Equal(Float(math.NaN())))
	assert.True(t, Array(Int(1), Str("a")).Equal(Array(Int(1), Str("a"))))
	assert.False(t, Array(Int(1)).Equal(Array(Int(1), Int(2))))
	assert.False(t, Dict(map[string]Value{"a": Int(1)}).Equal(Dict(map[string]Value{"b": Int(1)})))
}

func TestValueNative(t *testing.T) {
	v := Dict(map[string]Value{
		"a": Int(1),
		"b": Array(Bool(true), None(), Str("x")),
	})

	want := map[string]interface{}{
		"a": int64(1),
		"b": []interface{}{true, nil, "x"},
	}
	assert.Equal(t, want, v.Native())
}
