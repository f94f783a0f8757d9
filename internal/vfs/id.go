package vfs

import (
	"github.com/conneroisu/imprint/internal/packages"
)

// FileID identifies a file by virtual path, optionally scoped to a package.
// FileIDs are comparable and used directly as cache keys.
type FileID struct {
	pkg    packages.Spec
	scoped bool
	path   VirtualPath
}

// NewFileID returns the id of a project file.
func NewFileID(p string) FileID {
	return FileID{path: NewVirtualPath(p)}
}

// NewPackageFileID returns the id of a file inside a package.
func NewPackageFileID(spec packages.Spec, p string) FileID {
	return FileID{pkg: spec, scoped: true, path: NewVirtualPath(p)}
}

// Package returns the package the id is scoped to, if any.
func (id FileID) Package() (packages.Spec, bool) {
	return id.pkg, id.scoped
}

// Path returns the virtual path of the id.
func (id FileID) Path() VirtualPath {
	return id.path
}

// Join resolves rel against id's directory within the same scope.
func (id FileID) Join(rel string) FileID {
	return FileID{pkg: id.pkg, scoped: id.scoped, path: id.path.Join(rel)}
}

// String renders the id as "/path" or "@ns/name:version/path".
func (id FileID) String() string {
	if id.scoped {
		return id.pkg.String() + id.path.String()
	}
	return id.path.String()
}
