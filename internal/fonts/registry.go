package fonts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font/sfnt"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/logging"
)

// Font is a loaded face. Data is owned by the registry slot that produced
// it and lives as long as the registry.
type Font struct {
	Info Info
	Data []byte
	face *sfnt.Font
}

// NumGlyphs returns the number of glyphs in the face.
func (f *Font) NumGlyphs() int {
	return f.face.NumGlyphs()
}

// Face exposes the parsed face for glyph access.
func (f *Font) Face() *sfnt.Font {
	return f.face
}

// Options control font discovery.
type Options struct {
	// Paths are extra font files or directories searched in addition to
	// the system directories.
	Paths []string
	// IgnoreSystemFonts skips the platform font directories.
	IgnoreSystemFonts bool
	// SystemDirs overrides the platform font directories.
	SystemDirs []string
	Logger     logging.Logger
}

type slot struct {
	info Info
	load func() (*Font, error)
}

// Registry holds the catalog built at construction and the lazily loaded
// font data.
type Registry struct {
	book     *Book
	slots    []*slot
	warnings *hosterrors.Collector
}

var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
	".ttc": true,
	".otc": true,
}

// NewRegistry discovers fonts and reads their metadata. Files or faces that
// cannot be parsed are skipped and reported through Warnings.
func NewRegistry(ctx context.Context, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("fonts")

	r := &Registry{warnings: hosterrors.NewCollector()}

	var roots []string
	if !opts.IgnoreSystemFonts {
		roots = append(roots, opts.SystemDirs...)
		if opts.SystemDirs == nil {
			roots = append(roots, SystemDirs()...)
		}
	}
	roots = append(roots, opts.Paths...)

	files := r.collect(roots)

	var infos []Info
	for _, path := range files {
		faces, skipped, err := scanFile(path)
		if err != nil {
			r.warnings.Warn(path, fmt.Sprintf("skipping unreadable font: %v", err))
			logger.Warn(ctx, err, "Skipping unreadable font", "path", path)
			continue
		}
		for _, err := range skipped {
			r.warnings.Warn(path, fmt.Sprintf("skipping unreadable face: %v", err))
			logger.Warn(ctx, err, "Skipping unreadable face", "path", path)
		}
		infos = append(infos, faces...)
	}

	r.book = NewBook(infos)
	r.slots = make([]*slot, len(infos))
	for i, info := range infos {
		info := info
		r.slots[i] = &slot{
			info: info,
			load: sync.OnceValues(func() (*Font, error) { return loadFace(info) }),
		}
	}

	logger.Debug(ctx, "Font catalog built", "faces", len(infos), "files", len(files))
	return r
}

// collect walks roots and returns the sorted, de-duplicated font files.
func (r *Registry) collect(roots []string) []string {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			// Missing system directories are normal on most platforms.
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && fontExtensions[strings.ToLower(filepath.Ext(path))] {
				add(path)
			}
			return nil
		})
	}

	sort.Strings(files)
	return files
}

// scanFile reads the name tables of every face in path. Faces of a
// collection that cannot be read are returned in skipped; the rest are kept.
func scanFile(path string) (infos []Info, skipped []error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	coll, err := sfnt.ParseCollectionReaderAt(f)
	if err != nil {
		return nil, nil, err
	}

	infos, skipped = scanFaces(path, coll.NumFonts(), coll.Font)
	if len(infos) == 0 && len(skipped) > 0 {
		return nil, nil, errors.Join(skipped...)
	}
	return infos, skipped, nil
}

// scanFaces describes faces 0..n-1. Indices are the face's position in the
// file, so a skipped face leaves a gap rather than shifting its successors.
func scanFaces(path string, n int, face func(int) (*sfnt.Font, error)) ([]Info, []error) {
	var buf sfnt.Buffer
	var skipped []error
	infos := make([]Info, 0, n)
	for i := 0; i < n; i++ {
		f, err := face(i)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("face %d: %w", i, err))
			continue
		}
		info, err := describe(&buf, f)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("face %d: %w", i, err))
			continue
		}
		info.Path = path
		info.Index = i
		infos = append(infos, info)
	}
	return infos, skipped
}

// describe reads family and subfamily names, preferring the typographic
// names when present.
func describe(buf *sfnt.Buffer, face *sfnt.Font) (Info, error) {
	family, err := name(buf, face, sfnt.NameIDTypographicFamily, sfnt.NameIDFamily)
	if err != nil {
		return Info{}, err
	}
	subfamily, err := name(buf, face, sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily)
	if err != nil {
		subfamily = "Regular"
	}
	return Info{
		Family:    family,
		Subfamily: subfamily,
		Variant:   variantFromSubfamily(subfamily),
	}, nil
}

func name(buf *sfnt.Buffer, face *sfnt.Font, ids ...sfnt.NameID) (string, error) {
	var lastErr error
	for _, id := range ids {
		s, err := face.Name(buf, id)
		if err == nil && s != "" {
			return s, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("empty name")
	}
	return "", lastErr
}

// loadFace reads the whole font file and parses the requested face.
func loadFace(info Info) (*Font, error) {
	data, err := os.ReadFile(info.Path)
	if err != nil {
		return nil, err
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	face, err := coll.Font(info.Index)
	if err != nil {
		return nil, err
	}
	return &Font{Info: info, Data: data, face: face}, nil
}

// Book returns the catalog.
func (r *Registry) Book() *Book {
	return r.book
}

// Len returns the number of faces in the catalog.
func (r *Registry) Len() int {
	return len(r.slots)
}

// Load returns the face at index, reading it on first access. Indices
// outside the catalog and faces that fail to load report FontUnavailable.
func (r *Registry) Load(index int) (*Font, error) {
	if index < 0 || index >= len(r.slots) {
		return nil, hosterrors.NewFontUnavailableError(index, fmt.Errorf("catalog has %d faces", len(r.slots)))
	}
	font, err := r.slots[index].load()
	if err != nil {
		return nil, hosterrors.NewFontUnavailableError(index, err).WithPath(r.slots[index].info.Path)
	}
	return font, nil
}

// Warnings returns the faces skipped during discovery.
func (r *Registry) Warnings() []hosterrors.Diagnostic {
	return r.warnings.All()
}

// SystemDirs returns the platform font directories.
func SystemDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		dirs := []string{"/System/Library/Fonts", "/Library/Fonts", "/Network/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if data := os.Getenv("XDG_DATA_HOME"); data != "" {
			dirs = append(dirs, filepath.Join(data, "fonts"))
		} else if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"))
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
