// Package compiler defines the contracts between the compilation host, a
// document compiler engine and a PDF serializer, and the flow that ties
// them together.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/fonts"
	"github.com/conneroisu/imprint/internal/vfs"
	"github.com/conneroisu/imprint/internal/world"
)

// World is the resolution contract an engine queries while compiling.
type World interface {
	Library() *world.Library
	Book() *fonts.Book
	Main() *vfs.Source
	MainID() vfs.FileID
	Source(ctx context.Context, id vfs.FileID) (*vfs.Source, error)
	File(ctx context.Context, id vfs.FileID) ([]byte, error)
	Font(index int) (*fonts.Font, bool)
	Today(offset *int64) (world.Date, bool)
}

var _ World = (*world.Host)(nil)

// Document is a compiled, laid out document.
type Document interface {
	// Pages returns the number of pages.
	Pages() int
}

// Engine compiles the main source of a world. It returns a document when
// compilation succeeds; diagnostics may accompany either outcome.
type Engine interface {
	Compile(ctx context.Context, w World) (Document, []hosterrors.Diagnostic)
}

// PDFOptions control serialization.
type PDFOptions struct {
	// Identifier is a stable document identifier embedded in the output.
	Identifier string
	// Timestamp overrides the creation date; nil uses the world's date.
	Timestamp *world.Date
	// Pages restricts output to 1-based page ranges; empty means all.
	Pages []PageRange
}

// PageRange is an inclusive 1-based range of pages. A zero Last runs to
// the final page.
type PageRange struct {
	First, Last int
}

// Serializer turns a document into PDF bytes.
type Serializer interface {
	Serialize(doc Document, opts PDFOptions) ([]byte, error)
}

// ErrNoEngine is returned by Lookup when no engine is registered under the
// requested name.
var ErrNoEngine = errors.New("no compiler engine registered")

// Backend pairs an engine with its serializer.
type Backend struct {
	Engine     Engine
	Serializer Serializer
}

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Backend)
)

// Register makes a backend available by name. It panics if the name is
// taken or the backend is incomplete.
func Register(name string, b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if b.Engine == nil || b.Serializer == nil {
		panic("compiler: Register backend is incomplete for " + name)
	}
	if _, dup := backends[name]; dup {
		panic("compiler: Register called twice for " + name)
	}
	backends[name] = b
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[name]
	if !ok {
		return Backend{}, fmt.Errorf("%w: %q", ErrNoEngine, name)
	}
	return b, nil
}

// Backends returns the registered names in sorted order.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unregister(name string) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	delete(backends, name)
}
