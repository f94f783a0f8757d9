package compiler

import (
	"sort"
	"strings"

	"github.com/conneroisu/imprint/internal/value"
)

// ApplyPlaceholders replaces every {{key}} in template with values[key].
// Substitution is a single pass: inserted text is never scanned again, and
// placeholders without a value are left as they are.
func ApplyPlaceholders(template string, values map[string]string) string {
	if len(values) == 0 {
		return template
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", values[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// PlaceholderValues flattens the top level of a dict into placeholder
// text. Strings are used verbatim and other values in document syntax.
func PlaceholderValues(v value.Value) map[string]string {
	out := make(map[string]string, v.Len())
	for _, k := range v.Keys() {
		item, _ := v.Get(k)
		if s, ok := item.AsStr(); ok {
			out[k] = s
			continue
		}
		out[k] = item.String()
	}
	return out
}
