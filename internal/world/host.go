// Package world implements the compilation host: the environment a
// document compiler queries for its input scope, fonts, main source, other
// files and the current date during one compilation.
package world

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/fonts"
	"github.com/conneroisu/imprint/internal/logging"
	"github.com/conneroisu/imprint/internal/packages"
	"github.com/conneroisu/imprint/internal/value"
	"github.com/conneroisu/imprint/internal/vfs"
)

// DefaultMainPath is the virtual path of the main source.
const DefaultMainPath = "/main.typ"

// Options describe one compilation.
type Options struct {
	// Source is the text of the main document.
	Source string
	// Root is the project directory that virtual paths resolve against.
	// Defaults to the working directory.
	Root string
	// MainPath is the virtual path under which the main source is
	// exposed. Relative imports in the main source resolve against it.
	MainPath string
	// FontPaths are extra font files or directories.
	FontPaths         []string
	IgnoreSystemFonts bool
	// Data is arbitrary structured data bound to the "data" global.
	Data interface{}
	// Inputs are string key/value pairs bound to the "inputs" global.
	Inputs map[string]string
}

// Date is a calendar date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// defaultResolver is shared by every host built without a resolver, so
// fetches into the user cache are serialized within the process.
var defaultResolver = sync.OnceValue(func() *packages.Fetcher {
	return packages.NewFetcher(packages.DefaultCacheDir())
})

type settings struct {
	registry *fonts.Registry
	resolver vfs.PackageResolver
	clock    func() time.Time
	logger   logging.Logger
}

// Option injects a collaborator into the host.
type Option func(*settings)

// WithFontRegistry uses registry instead of discovering fonts.
func WithFontRegistry(registry *fonts.Registry) Option {
	return func(s *settings) { s.registry = registry }
}

// WithPackageResolver sets the resolver for package-scoped files. By
// default packages are downloaded into the user cache directory by a
// fetcher shared across the process.
func WithPackageResolver(resolver vfs.PackageResolver) Option {
	return func(s *settings) { s.resolver = resolver }
}

// WithClock sets the source of the construction timestamp.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) { s.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// Host answers a compiler's resolution queries for one compilation. Only
// the file table changes after construction.
type Host struct {
	root     string
	main     *vfs.Source
	library  *Library
	registry *fonts.Registry
	files    *vfs.Table
	resolver vfs.PackageResolver
	now      time.Time
	warnings []hosterrors.Diagnostic
	logger   logging.Logger
}

// New builds a host. Fonts are discovered and the input scope is built
// here and nowhere else.
func New(ctx context.Context, opts Options, options ...Option) (*Host, error) {
	s := settings{clock: time.Now}
	for _, opt := range options {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	logger := s.logger.WithComponent("world")

	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	h := &Host{
		root:   root,
		now:    s.clock(),
		logger: logger,
	}

	mainPath := opts.MainPath
	if mainPath == "" {
		mainPath = DefaultMainPath
	}
	mainID := vfs.NewFileID(mainPath)
	if mainID.Path().Escapes() {
		return nil, hosterrors.NewAccessDeniedError(mainPath, "main path escapes the root")
	}
	h.main = vfs.NewSource(mainID, strings.TrimPrefix(opts.Source, "\ufeff"))

	data, warnings := value.Convert(opts.Data)
	for _, w := range warnings {
		h.warn(GlobalData+strings.TrimPrefix(w.Path, "$"), w.Reason)
		logger.Warn(ctx, nil, "Data value degraded", "path", w.Path, "reason", w.Reason)
	}

	inputs := make(map[string]value.Value, len(opts.Inputs))
	for k, v := range opts.Inputs {
		inputs[k] = value.Str(v)
	}

	h.library, err = NewLibrary(map[string]value.Value{
		GlobalData:   data,
		GlobalInputs: value.Dict(inputs),
	})
	if err != nil {
		return nil, hosterrors.NewInternalError("cannot build input scope", err)
	}

	h.registry = s.registry
	if h.registry == nil {
		h.registry = fonts.NewRegistry(ctx, fonts.Options{
			Paths:             opts.FontPaths,
			IgnoreSystemFonts: opts.IgnoreSystemFonts,
			Logger:            s.logger,
		})
	}
	h.warnings = append(h.warnings, h.registry.Warnings()...)

	h.resolver = s.resolver
	if h.resolver == nil {
		h.resolver = defaultResolver()
	}
	h.files = vfs.NewTable(root, h.resolver, vfs.WithLogger(s.logger))

	logger.Debug(ctx, "Host ready",
		"root", root,
		"main", mainID.String(),
		"fonts", h.registry.Len(),
		"library", h.library.FingerprintHex())

	return h, nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", hosterrors.NewConfigError("cannot resolve root", err).WithPath(root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", hosterrors.NewConfigError("root directory is not accessible", err).WithPath(abs)
	}
	if !info.IsDir() {
		return "", hosterrors.NewConfigError("root is not a directory", nil).WithPath(abs)
	}
	return abs, nil
}

func (h *Host) warn(path, message string) {
	h.warnings = append(h.warnings, hosterrors.Diagnostic{
		Severity: hosterrors.SeverityWarning,
		Message:  message,
		Path:     path,
	})
}

// Root returns the absolute project directory.
func (h *Host) Root() string {
	return h.root
}

// Library returns the input scope built at construction.
func (h *Host) Library() *Library {
	return h.library
}

// Book returns the font catalog.
func (h *Host) Book() *fonts.Book {
	return h.registry.Book()
}

// Main returns the detached main source.
func (h *Host) Main() *vfs.Source {
	return h.main
}

// MainID returns the identifier of the main source.
func (h *Host) MainID() vfs.FileID {
	return h.main.ID()
}

// Source returns the decoded text of id. The main id is always answered
// with the detached main source, even if a file exists at that path.
func (h *Host) Source(ctx context.Context, id vfs.FileID) (*vfs.Source, error) {
	if id == h.main.ID() {
		return h.main, nil
	}
	return h.files.ResolveSource(ctx, id)
}

// File returns the raw bytes of id.
func (h *Host) File(ctx context.Context, id vfs.FileID) ([]byte, error) {
	if id == h.main.ID() {
		return []byte(h.main.Text()), nil
	}
	return h.files.Resolve(ctx, id)
}

// Font returns the face at index, or false when it is unavailable.
func (h *Host) Font(index int) (*fonts.Font, bool) {
	font, err := h.registry.Load(index)
	if err != nil {
		h.logger.Debug(context.Background(), "Font unavailable", "index", index, "error", err.Error())
		return nil, false
	}
	return font, true
}

// Today returns the construction date. A nil offset uses the local time
// zone; otherwise the date is taken at UTC shifted by offset hours. Offsets
// beyond a day are unavailable.
func (h *Host) Today(offset *int64) (Date, bool) {
	t := h.now.Local()
	if offset != nil {
		if *offset < -23 || *offset > 23 {
			return Date{}, false
		}
		t = h.now.UTC().Add(time.Duration(*offset) * time.Hour)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, true
}

// Warnings returns what was degraded or skipped while building the host.
func (h *Host) Warnings() []hosterrors.Diagnostic {
	return append([]hosterrors.Diagnostic(nil), h.warnings...)
}

// FileStats reports file table hits, misses and cached entries.
func (h *Host) FileStats() (hits, misses int64, entries int) {
	return h.files.Stats()
}
