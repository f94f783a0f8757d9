// Package fonts discovers font files and serves them by stable index.
//
// Metadata for every face is read up front from the font's name table;
// the font data itself is read only when a face is first loaded.
package fonts

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Style is the slant of a face.
type Style int

const (
	StyleNormal Style = iota
	StyleItalic
	StyleOblique
)

// String returns the string representation of the style
func (s Style) String() string {
	switch s {
	case StyleItalic:
		return "italic"
	case StyleOblique:
		return "oblique"
	default:
		return "normal"
	}
}

// Common weights.
const (
	WeightThin       = 100
	WeightExtraLight = 200
	WeightLight      = 300
	WeightRegular    = 400
	WeightMedium     = 500
	WeightSemiBold   = 600
	WeightBold       = 700
	WeightExtraBold  = 800
	WeightBlack      = 900
)

// Variant selects a face within a family.
type Variant struct {
	Style   Style
	Weight  int
	Stretch float64
}

// DefaultVariant is upright, regular weight, normal width.
var DefaultVariant = Variant{Style: StyleNormal, Weight: WeightRegular, Stretch: 1.0}

// Info describes one face without its data.
type Info struct {
	Family    string
	Subfamily string
	Variant   Variant
	Path      string
	Index     int // face index within a collection file
}

// Book is the ordered, searchable catalog of faces. Positions in the book
// are the font indices served by the registry.
type Book struct {
	infos []Info
}

// NewBook creates a book over infos, preserving their order.
func NewBook(infos []Info) *Book {
	return &Book{infos: append([]Info(nil), infos...)}
}

// Len returns the number of faces.
func (b *Book) Len() int {
	return len(b.infos)
}

// Info returns the face at index.
func (b *Book) Info(index int) (Info, bool) {
	if index < 0 || index >= len(b.infos) {
		return Info{}, false
	}
	return b.infos[index], true
}

// Infos returns a copy of the catalog.
func (b *Book) Infos() []Info {
	return append([]Info(nil), b.infos...)
}

// Families returns the distinct family names in sorted order.
func (b *Book) Families() []string {
	seen := make(map[string]bool)
	var families []string
	for _, info := range b.infos {
		if !seen[info.Family] {
			seen[info.Family] = true
			families = append(families, info.Family)
		}
	}
	sort.Strings(families)
	return families
}

// Select returns the index of the face in family that best matches
// variant. Family names match case-insensitively.
func (b *Book) Select(family string, variant Variant) (int, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(family))

	best, bestScore := -1, math.MaxFloat64
	for i, info := range b.infos {
		if fold.String(info.Family) != want {
			continue
		}
		score := distance(info.Variant, variant)
		if score < bestScore {
			best, bestScore = i, score
		}
	}
	return best, best >= 0
}

// distance orders candidates by style first, then stretch, then weight.
func distance(have, want Variant) float64 {
	var d float64
	if have.Style != want.Style {
		d += 10000
		// Oblique and italic substitute for each other before upright does.
		if have.Style != StyleNormal && want.Style != StyleNormal {
			d -= 5000
		}
	}
	d += math.Abs(have.Stretch-want.Stretch) * 1000
	d += math.Abs(float64(have.Weight - want.Weight))
	return d
}

// variantFromSubfamily infers a variant from a subfamily such as
// "SemiBold Condensed Italic".
func variantFromSubfamily(subfamily string) Variant {
	v := DefaultVariant
	lower := strings.ToLower(subfamily)
	compact := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(lower)

	switch {
	case strings.Contains(compact, "italic"):
		v.Style = StyleItalic
	case strings.Contains(compact, "oblique"):
		v.Style = StyleOblique
	}

	weights := []struct {
		word   string
		weight int
	}{
		{"extralight", WeightExtraLight},
		{"ultralight", WeightExtraLight},
		{"semibold", WeightSemiBold},
		{"demibold", WeightSemiBold},
		{"extrabold", WeightExtraBold},
		{"ultrabold", WeightExtraBold},
		{"hairline", WeightThin},
		{"thin", WeightThin},
		{"light", WeightLight},
		{"medium", WeightMedium},
		{"bold", WeightBold},
		{"black", WeightBlack},
		{"heavy", WeightBlack},
	}
	for _, w := range weights {
		if strings.Contains(compact, w.word) {
			v.Weight = w.weight
			break
		}
	}

	stretches := []struct {
		word    string
		stretch float64
	}{
		{"ultracondensed", 0.5},
		{"extracondensed", 0.625},
		{"semicondensed", 0.875},
		{"condensed", 0.75},
		{"ultraexpanded", 2.0},
		{"extraexpanded", 1.5},
		{"semiexpanded", 1.125},
		{"expanded", 1.25},
	}
	for _, s := range stretches {
		if strings.Contains(compact, s.word) {
			v.Stretch = s.stretch
			break
		}
	}

	return v
}
