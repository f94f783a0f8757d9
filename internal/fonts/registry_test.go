package fonts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
)

func fontDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"Go-Regular.ttf":   goregular.TTF,
		"Go-Bold.ttf":      gobold.TTF,
		"nested/Go-It.TTF": goitalic.TTF,
		"Go-Mono.ttf":      gomono.TTF,
		"README.txt":       []byte("not a font"),
	}
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	return dir
}

func newTestRegistry(t *testing.T, paths ...string) *Registry {
	t.Helper()
	return NewRegistry(context.Background(), Options{Paths: paths, IgnoreSystemFonts: true})
}

func TestRegistryDiscoversFaces(t *testing.T) {
	dir := fontDir(t)
	r := newTestRegistry(t, dir)

	require.Equal(t, 4, r.Len())
	assert.Equal(t, 4, r.Book().Len())
	assert.Equal(t, []string{"Go", "Go Mono"}, r.Book().Families())
	assert.Empty(t, r.Warnings())

	// Catalog order follows the sorted file paths.
	first, ok := r.Book().Info(0)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Go-Bold.ttf"), first.Path)
	assert.Equal(t, WeightBold, first.Variant.Weight)
}

func TestRegistryIndicesAreStable(t *testing.T) {
	dir := fontDir(t)
	a := newTestRegistry(t, dir)
	b := newTestRegistry(t, dir, filepath.Join(dir, "Go-Regular.ttf"))

	assert.Equal(t, a.Book().Infos(), b.Book().Infos(), "duplicate paths do not add faces")
}

func TestRegistryLoadIsLazyAndMemoized(t *testing.T) {
	dir := fontDir(t)
	r := newTestRegistry(t, dir)

	idx, ok := r.Book().Select("go", DefaultVariant)
	require.True(t, ok)

	font, err := r.Load(idx)
	require.NoError(t, err)
	assert.Equal(t, goregular.TTF, font.Data)
	assert.Greater(t, font.NumGlyphs(), 0)

	again, err := r.Load(idx)
	require.NoError(t, err)
	assert.Same(t, font, again)

	// Removing a file before its first load makes only that slot unavailable.
	monoIdx, ok := r.Book().Select("Go Mono", DefaultVariant)
	require.True(t, ok)
	require.NoError(t, os.Remove(filepath.Join(dir, "Go-Mono.ttf")))

	_, err = r.Load(monoIdx)
	assert.True(t, errors.Is(err, hosterrors.ErrFontUnavailable))

	_, err = r.Load(idx)
	assert.NoError(t, err)
}

func TestRegistryLoadOutOfRange(t *testing.T) {
	r := newTestRegistry(t, fontDir(t))

	for _, idx := range []int{-1, r.Len(), r.Len() + 100} {
		font, err := r.Load(idx)
		assert.Nil(t, font)
		assert.True(t, errors.Is(err, hosterrors.ErrFontUnavailable))
	}
}

func TestRegistrySkipsBrokenFonts(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.otf")
	require.NoError(t, os.WriteFile(broken, []byte("OTTO but not really"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.ttf"), goregular.TTF, 0o644))

	r := newTestRegistry(t, dir)
	assert.Equal(t, 1, r.Len())

	warnings := r.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, broken, warnings[0].Path)
	assert.Equal(t, hosterrors.SeverityWarning, warnings[0].Severity)
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry(context.Background(), Options{SystemDirs: []string{filepath.Join(t.TempDir(), "absent")}})
	assert.Equal(t, 0, r.Len())

	_, err := r.Load(0)
	assert.True(t, errors.Is(err, hosterrors.ErrFontUnavailable))
}

func TestRegistrySingleFilePath(t *testing.T) {
	dir := fontDir(t)
	r := newTestRegistry(t, filepath.Join(dir, "Go-Mono.ttf"))
	require.Equal(t, 1, r.Len())
	info, _ := r.Book().Info(0)
	assert.Equal(t, "Go Mono", info.Family)
}

func TestScanFacesKeepsReadableFaces(t *testing.T) {
	regular, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)

	infos, skipped := scanFaces("/fonts/Go.ttc", 3, func(i int) (*sfnt.Font, error) {
		if i == 1 {
			return nil, errors.New("bad name table")
		}
		return regular, nil
	})

	require.Len(t, infos, 2)
	assert.Equal(t, 0, infos[0].Index)
	assert.Equal(t, 2, infos[1].Index)
	assert.Equal(t, "/fonts/Go.ttc", infos[1].Path)
	assert.Equal(t, "Go", infos[1].Family)

	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Error(), "face 1: bad name table")
}

func TestScanFacesAllUnreadable(t *testing.T) {
	infos, skipped := scanFaces("/fonts/broken.ttc", 2, func(i int) (*sfnt.Font, error) {
		return nil, errors.New("truncated")
	})
	assert.Empty(t, infos)
	assert.Len(t, skipped, 2)
}
