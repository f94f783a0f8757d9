package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantFromSubfamily(t *testing.T) {
	tests := []struct {
		subfamily string
		want      Variant
	}{
		{"Regular", DefaultVariant},
		{"Bold", Variant{StyleNormal, WeightBold, 1.0}},
		{"Bold Italic", Variant{StyleItalic, WeightBold, 1.0}},
		{"SemiBold", Variant{StyleNormal, WeightSemiBold, 1.0}},
		{"Extra-Light Oblique", Variant{StyleOblique, WeightExtraLight, 1.0}},
		{"Black Condensed", Variant{StyleNormal, WeightBlack, 0.75}},
		{"SemiCondensed Medium", Variant{StyleNormal, WeightMedium, 0.875}},
		{"Expanded", Variant{StyleNormal, WeightRegular, 1.25}},
	}

	for _, tt := range tests {
		t.Run(tt.subfamily, func(t *testing.T) {
			assert.Equal(t, tt.want, variantFromSubfamily(tt.subfamily))
		})
	}
}

func TestBookSelect(t *testing.T) {
	book := NewBook([]Info{
		{Family: "Libertinus Serif", Subfamily: "Regular", Variant: DefaultVariant},
		{Family: "Libertinus Serif", Subfamily: "Bold", Variant: Variant{StyleNormal, WeightBold, 1.0}},
		{Family: "Libertinus Serif", Subfamily: "Italic", Variant: Variant{StyleItalic, WeightRegular, 1.0}},
		{Family: "Straße Sans", Subfamily: "Regular", Variant: DefaultVariant},
		{Family: "Obliquity", Subfamily: "Oblique", Variant: Variant{StyleOblique, WeightRegular, 1.0}},
		{Family: "Obliquity", Subfamily: "Bold", Variant: Variant{StyleNormal, WeightBold, 1.0}},
	})

	tests := []struct {
		name    string
		family  string
		variant Variant
		want    int
		found   bool
	}{
		{"exact regular", "Libertinus Serif", DefaultVariant, 0, true},
		{"case insensitive", "LIBERTINUS serif", DefaultVariant, 0, true},
		{"closest weight", "Libertinus Serif", Variant{StyleNormal, WeightSemiBold, 1.0}, 1, true},
		{"style before weight", "Libertinus Serif", Variant{StyleItalic, WeightBold, 1.0}, 2, true},
		{"full case folding", "STRASSE SANS", DefaultVariant, 3, true},
		{"oblique stands in for italic", "Obliquity", Variant{StyleItalic, WeightBold, 1.0}, 4, true},
		{"unknown family", "Comic Neue", DefaultVariant, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := book.Select(tt.family, tt.variant)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookInfoBounds(t *testing.T) {
	book := NewBook([]Info{{Family: "A"}})

	_, ok := book.Info(0)
	assert.True(t, ok)
	_, ok = book.Info(1)
	assert.False(t, ok)
	_, ok = book.Info(-1)
	assert.False(t, ok)
}

func TestStyleString(t *testing.T) {
	assert.Equal(t, "normal", StyleNormal.String())
	assert.Equal(t, "italic", StyleItalic.String())
	assert.Equal(t, "oblique", StyleOblique.String())
}
