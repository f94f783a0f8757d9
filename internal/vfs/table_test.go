package vfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/packages"
)

type fakeResolver struct {
	dirs  map[packages.Spec]string
	err   error
	calls int64
	delay time.Duration

	active    int64
	maxActive int64
}

func (f *fakeResolver) Fetch(_ context.Context, spec packages.Spec) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	n := atomic.AddInt64(&f.active, 1)
	defer atomic.AddInt64(&f.active, -1)
	for {
		cur := atomic.LoadInt64(&f.maxActive)
		if n <= cur || atomic.CompareAndSwapInt64(&f.maxActive, cur, n) {
			break
		}
	}
	time.Sleep(f.delay)
	if f.err != nil {
		return "", f.err
	}
	dir, ok := f.dirs[spec]
	if !ok {
		return "", hosterrors.NewPackageNotFoundError(spec.String(), nil)
	}
	return dir, nil
}

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestResolveCachesBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/table.csv", []byte("a,b\n1,2\n"))
	table := NewTable(root, nil)
	ctx := context.Background()
	id := NewFileID("/data/table.csv")

	first, err := table.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(first))

	// Later disk changes are invisible: entries are write-once.
	writeFile(t, root, "data/table.csv", []byte("changed"))
	first[0] = 'X'

	second, err := table.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(second))

	hits, misses, entries := table.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, entries)

	table.Reset()
	third, err := table.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "changed", string(third))
}

func TestResolveErrors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))
	table := NewTable(root, nil)
	ctx := context.Background()

	_, err := table.Resolve(ctx, NewFileID("missing.typ"))
	assert.True(t, errors.Is(err, hosterrors.ErrNotFound))
	assert.Contains(t, err.Error(), filepath.Join(root, "missing.typ"))

	_, err = table.Resolve(ctx, NewFileID("dir"))
	assert.True(t, errors.Is(err, hosterrors.ErrIsDirectory))

	_, err = table.Resolve(ctx, NewFileID("../outside.typ"))
	assert.True(t, errors.Is(err, hosterrors.ErrAccessDenied))

	spec := packages.Spec{Namespace: "preview", Name: "x", Version: packages.Version{Major: 1}}
	_, err = table.Resolve(ctx, NewPackageFileID(spec, "lib.typ"))
	assert.True(t, errors.Is(err, hosterrors.ErrPackageNotFound))

	assert.Equal(t, 0, table.Len(), "failures are not cached")
}

func TestResolveSourceDecoding(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bom.typ", append([]byte{0xEF, 0xBB, 0xBF}, []byte("= Title\n")...))
	writeFile(t, root, "plain.typ", []byte("héllo"))
	writeFile(t, root, "bad.typ", []byte{'o', 'k', 0xff, 0xfe})
	table := NewTable(root, nil)
	ctx := context.Background()

	src, err := table.ResolveSource(ctx, NewFileID("bom.typ"))
	require.NoError(t, err)
	assert.Equal(t, "= Title\n", src.Text())
	assert.Equal(t, 1, src.LineCount())

	again, err := table.ResolveSource(ctx, NewFileID("bom.typ"))
	require.NoError(t, err)
	assert.Same(t, src, again, "decoded source is memoized")

	raw, err := table.Resolve(ctx, NewFileID("bom.typ"))
	require.NoError(t, err)
	assert.Equal(t, byte(0xEF), raw[0], "raw bytes keep the mark")

	src, err = table.ResolveSource(ctx, NewFileID("plain.typ"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", src.Text())

	for i := 0; i < 3; i++ {
		_, err = table.ResolveSource(ctx, NewFileID("bad.typ"))
		assert.True(t, errors.Is(err, hosterrors.ErrInvalidEncoding))
	}

	// The bytes of an undecodable file remain available.
	raw, err = table.Resolve(ctx, NewFileID("bad.typ"))
	require.NoError(t, err)
	assert.Len(t, raw, 4)
}

func TestResolvePackageFiles(t *testing.T) {
	pkgDir := t.TempDir()
	writeFile(t, pkgDir, "lib.typ", []byte("#let x = 1"))
	spec := packages.Spec{Namespace: "preview", Name: "util", Version: packages.Version{Minor: 3}}
	resolver := &fakeResolver{dirs: map[packages.Spec]string{spec: pkgDir}}

	root := t.TempDir()
	writeFile(t, root, "lib.typ", []byte("project lib"))
	table := NewTable(root, resolver)
	ctx := context.Background()

	src, err := table.ResolveSource(ctx, NewPackageFileID(spec, "lib.typ"))
	require.NoError(t, err)
	assert.Equal(t, "#let x = 1", src.Text())

	src, err = table.ResolveSource(ctx, NewFileID("lib.typ"))
	require.NoError(t, err)
	assert.Equal(t, "project lib", src.Text())

	_, err = table.ResolveSource(ctx, NewPackageFileID(spec, "lib.typ"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&resolver.calls))

	_, err = table.Resolve(ctx, NewPackageFileID(spec, "../../escape"))
	assert.True(t, errors.Is(err, hosterrors.ErrAccessDenied))
}

func TestResolvePropagatesFetchFailure(t *testing.T) {
	boom := hosterrors.NewNetworkError("https://registry/x.tar.gz", errors.New("connection refused"))
	table := NewTable(t.TempDir(), &fakeResolver{err: boom})
	spec := packages.Spec{Namespace: "preview", Name: "x", Version: packages.Version{Major: 1}}

	_, err := table.Resolve(context.Background(), NewPackageFileID(spec, "lib.typ"))
	assert.True(t, errors.Is(err, hosterrors.ErrNetworkFailed))
}

func TestResolveSerializesMissPath(t *testing.T) {
	pkgDir := t.TempDir()
	for _, name := range []string{"a.typ", "b.typ", "c.typ", "d.typ"} {
		writeFile(t, pkgDir, name, []byte(name))
	}
	spec := packages.Spec{Namespace: "preview", Name: "slow", Version: packages.Version{Major: 1}}
	resolver := &fakeResolver{dirs: map[packages.Spec]string{spec: pkgDir}, delay: 5 * time.Millisecond}
	table := NewTable(t.TempDir(), resolver)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, name := range []string{"a.typ", "b.typ", "c.typ", "d.typ"} {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				data, err := table.Resolve(context.Background(), NewPackageFileID(spec, name))
				assert.NoError(t, err)
				assert.Equal(t, name, string(data))
			}(name)
		}
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&resolver.maxActive), "resolution never overlaps")
	assert.Equal(t, int64(4), atomic.LoadInt64(&resolver.calls), "one fetch per distinct id")
	assert.Equal(t, 4, table.Len())
}
