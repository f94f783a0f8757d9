package vfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conneroisu/imprint/internal/packages"
)

func TestNewVirtualPath(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		escapes bool
	}{
		{"main.typ", "/main.typ", false},
		{"/main.typ", "/main.typ", false},
		{"./chapters//intro.typ", "/chapters/intro.typ", false},
		{"chapters/../main.typ", "/main.typ", false},
		{"a/b/../../c", "/c", false},
		{`figures\plot.svg`, "/figures/plot.svg", false},
		{"", "/", false},
		{"/", "/", false},
		{"../secret", "/../secret", true},
		{"a/../../secret", "/../secret", true},
		{"/../../x", "/../../x", true},
		{"..", "/..", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := NewVirtualPath(tt.raw)
			assert.Equal(t, tt.want, v.String())
			assert.Equal(t, tt.escapes, v.Escapes())
		})
	}
}

func TestVirtualPathResolve(t *testing.T) {
	root := filepath.FromSlash("/srv/project")

	got, ok := NewVirtualPath("/chapters/intro.typ").Resolve(root)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "chapters", "intro.typ"), got)

	got, ok = NewVirtualPath("/").Resolve(root)
	assert.True(t, ok)
	assert.Equal(t, root, got)

	_, ok = NewVirtualPath("../etc/passwd").Resolve(root)
	assert.False(t, ok)
}

func TestVirtualPathJoin(t *testing.T) {
	base := NewVirtualPath("/chapters/intro.typ")

	assert.Equal(t, "/chapters/figure.png", base.Join("figure.png").String())
	assert.Equal(t, "/shared/util.typ", base.Join("../shared/util.typ").String())
	assert.Equal(t, "/abs.typ", base.Join("/abs.typ").String())
	assert.True(t, base.Join("../../escape.typ").Escapes())
	assert.Equal(t, ".png", base.Join("figure.png").Ext())
}

func TestFileID(t *testing.T) {
	spec := packages.Spec{Namespace: "preview", Name: "cetz", Version: packages.Version{Major: 0, Minor: 2, Patch: 0}}

	local := NewFileID("lib.typ")
	scoped := NewPackageFileID(spec, "/lib.typ")

	assert.Equal(t, "/lib.typ", local.String())
	assert.Equal(t, "@preview/cetz:0.2.0/lib.typ", scoped.String())
	assert.NotEqual(t, local, scoped)
	assert.Equal(t, scoped, NewPackageFileID(spec, "./lib.typ"))
	assert.Equal(t, local, NewFileID("/x/../lib.typ"))

	_, ok := local.Package()
	assert.False(t, ok)
	got, ok := scoped.Package()
	assert.True(t, ok)
	assert.Equal(t, spec, got)

	joined := scoped.Join("src/draw.typ")
	assert.Equal(t, "@preview/cetz:0.2.0/src/draw.typ", joined.String())

	m := map[FileID]int{local: 1, scoped: 2}
	assert.Equal(t, 2, m[NewPackageFileID(spec, "lib.typ")])
}
