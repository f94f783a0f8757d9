// Package vfs maps virtual file identifiers to bytes and decoded text
// sources for one compilation host.
//
// A FileID is a rooted virtual path, optionally scoped to a package. The
// Table resolves ids against the project root or a package directory,
// caches the raw bytes of every file it reads, and decodes text sources at
// most once per entry.
package vfs

import (
	"path"
	"path/filepath"
	"strings"
)

// VirtualPath is a normalized, rooted, slash-separated path. A VirtualPath
// whose normalization left leading ".." components cannot be resolved
// against any root.
type VirtualPath struct {
	parts string // components joined by "/", without the leading slash
}

// NewVirtualPath normalizes raw. Empty and "." components are dropped; ".."
// removes the preceding component when there is one and is kept otherwise.
// Backslashes are treated as separators.
func NewVirtualPath(raw string) VirtualPath {
	raw = strings.ReplaceAll(raw, "\\", "/")

	var out []string
	for _, c := range strings.Split(raw, "/") {
		switch c {
		case "", ".":
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else {
				out = append(out, "..")
			}
		default:
			out = append(out, c)
		}
	}
	return VirtualPath{parts: strings.Join(out, "/")}
}

// String returns the rooted form, e.g. "/chapters/intro.typ".
func (v VirtualPath) String() string {
	return "/" + v.parts
}

// Rootless returns the path without its leading slash.
func (v VirtualPath) Rootless() string {
	return v.parts
}

// Ext returns the file extension including the dot.
func (v VirtualPath) Ext() string {
	return path.Ext(v.parts)
}

// Escapes reports whether the path climbs above its root.
func (v VirtualPath) Escapes() bool {
	return v.parts == ".." || strings.HasPrefix(v.parts, "../")
}

// Resolve joins the path onto root. It reports false when the path would
// leave root.
func (v VirtualPath) Resolve(root string) (string, bool) {
	if v.Escapes() {
		return "", false
	}
	if v.parts == "" {
		return filepath.Clean(root), true
	}
	return filepath.Join(root, filepath.FromSlash(v.parts)), true
}

// Join resolves rel relative to the directory containing v. A rooted rel
// replaces v entirely.
func (v VirtualPath) Join(rel string) VirtualPath {
	if strings.HasPrefix(rel, "/") {
		return NewVirtualPath(rel)
	}
	return NewVirtualPath(path.Dir(v.String()) + "/" + rel)
}
