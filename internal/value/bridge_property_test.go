//go:build property
// +build property

package value

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genScalar produces the plain Go scalars a decoder hands over.
func genScalar() gopter.Gen {
	return gen.OneGenOf(
		gen.Bool().Map(func(bool) interface{} { return nil }),
		gen.Bool().Map(func(b bool) interface{} { return b }),
		gen.Int64().Map(func(i int64) interface{} { return i }),
		gen.Float64Range(-1e9, 1e9).Map(func(f float64) interface{} { return f }),
		gen.AlphaString().Map(func(s string) interface{} { return s }),
	)
}

func genTerm() gopter.Gen {
	return gen.OneGenOf(
		genScalar(),
		gen.SliceOf(genScalar()).Map(func(items []interface{}) interface{} { return items }),
		gen.MapOf(gen.Identifier(), genScalar()).Map(func(m map[string]interface{}) interface{} { return m }),
	)
}

func TestConvertProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("supported shapes convert without warnings", prop.ForAll(
		func(term interface{}) bool {
			_, warnings := Convert(term)
			return len(warnings) == 0
		},
		genTerm(),
	))

	properties.Property("native data converts back to the same value", prop.ForAll(
		func(term interface{}) bool {
			v, _ := Convert(term)
			again, warnings := Convert(v.Native())
			return len(warnings) == 0 && v.Equal(again)
		},
		genTerm(),
	))

	properties.Property("map keys of other types are dropped, never fatal", prop.ForAll(
		func(keys []int, name string) bool {
			m := map[interface{}]interface{}{"name": name}
			for _, k := range keys {
				m[k] = k
			}
			v, warnings := Convert(m)
			got, ok := v.Get("name")
			return ok && v.Len() == 1 && len(warnings) == len(m)-1 && got.Equal(Str(name))
		},
		gen.SliceOf(gen.Int()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
