package vfs

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/logging"
	"github.com/conneroisu/imprint/internal/packages"
)

// PackageResolver returns the local directory of a package, downloading it
// if needed.
type PackageResolver interface {
	Fetch(ctx context.Context, spec packages.Spec) (string, error)
}

// entry holds the bytes of one file. data never changes once stored; the
// decoded source, or the decode error, is filled in on first request.
type entry struct {
	data      []byte
	decoded   bool
	source    *Source
	decodeErr error
}

// Table caches file contents for one host.
//
// A single mutex guards the table and stays held across the whole miss
// path, including package downloads and disk reads. Every resolution on a
// Table is therefore serialized, and concurrent requests for the same id
// never read or download twice.
type Table struct {
	root     string
	packages PackageResolver
	logger   logging.Logger

	mutex   sync.Mutex
	entries map[FileID]*entry

	hits   int64
	misses int64
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) TableOption {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger.WithComponent("vfs")
		}
	}
}

// NewTable creates a table resolving project files under root and package
// files through resolver. A nil resolver makes every package id fail with
// a not-found error.
func NewTable(root string, resolver PackageResolver, opts ...TableOption) *Table {
	t := &Table{
		root:     root,
		packages: resolver,
		logger:   logging.NewNop(),
		entries:  make(map[FileID]*entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the project root directory.
func (t *Table) Root() string {
	return t.root
}

// Resolve returns a copy of the bytes of id.
func (t *Table) Resolve(ctx context.Context, id FileID) ([]byte, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	e, err := t.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(e.data), nil
}

// ResolveSource returns the decoded text of id. Decoding happens once per
// entry; a decode failure is remembered and returned on every later call.
func (t *Table) ResolveSource(ctx context.Context, id FileID) (*Source, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	e, err := t.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.decoded {
		e.source, e.decodeErr = Decode(id, e.data)
		e.decoded = true
	}
	return e.source, e.decodeErr
}

// lookup returns the cached entry for id or loads it. Caller holds mutex.
func (t *Table) lookup(ctx context.Context, id FileID) (*entry, error) {
	if e, ok := t.entries[id]; ok {
		atomic.AddInt64(&t.hits, 1)
		return e, nil
	}
	atomic.AddInt64(&t.misses, 1)

	path, err := t.locate(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := readFile(path)
	if err != nil {
		t.logger.Debug(ctx, "File read failed", "id", id.String(), "path", path, "error", err.Error())
		return nil, err
	}

	t.logger.Debug(ctx, "File loaded", "id", id.String(), "path", path, "bytes", len(data))
	e := &entry{data: data}
	t.entries[id] = e
	return e, nil
}

// locate maps id to a path on disk.
func (t *Table) locate(ctx context.Context, id FileID) (string, error) {
	root := t.root
	if spec, ok := id.Package(); ok {
		if t.packages == nil {
			return "", hosterrors.NewPackageNotFoundError(spec.String(), nil)
		}
		dir, err := t.packages.Fetch(ctx, spec)
		if err != nil {
			return "", err
		}
		root = dir
	}

	path, ok := id.Path().Resolve(root)
	if !ok {
		return "", hosterrors.NewAccessDeniedError(id.String(), "path escapes its root")
	}
	return path, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, hosterrors.NewFileNotFoundError(path, err)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, hosterrors.NewAccessDeniedError(path, "permission denied")
		}
		return nil, hosterrors.NewIOError(path, err)
	}
	if info.IsDir() {
		return nil, hosterrors.NewIsDirectoryError(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, hosterrors.NewAccessDeniedError(path, "permission denied")
		}
		return nil, hosterrors.NewIOError(path, err)
	}
	return data, nil
}

// Stats reports cache hits, misses and the number of cached entries.
func (t *Table) Stats() (hits, misses int64, entries int) {
	t.mutex.Lock()
	entries = len(t.entries)
	t.mutex.Unlock()
	return atomic.LoadInt64(&t.hits), atomic.LoadInt64(&t.misses), entries
}

// Len returns the number of cached entries.
func (t *Table) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.entries)
}

// Reset drops every cached entry so the next lookup reads from disk again.
func (t *Table) Reset() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.entries = make(map[FileID]*entry)
}
