// Package packages resolves versioned document packages to local
// directories. Packages live in a process-wide on-disk cache laid out as
// <cache-root>/<namespace>/<name>/<version>; a package missing from the cache
// is downloaded once from the registry as a gzip-compressed tar archive and
// unpacked in place. An existing cache directory is trusted as-is and never
// re-validated against the registry.
package packages

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
)

// Version is a package version in major.minor.patch form.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// String renders the version as major.minor.patch.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion parses a major.minor.patch version string.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q must have the form major.minor.patch", s)
	}

	var nums [3]uint32
	for i, part := range parts {
		if part == "" {
			return Version{}, fmt.Errorf("version %q has an empty component", s)
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("version %q: %w", s, err)
		}
		nums[i] = uint32(n)
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Spec identifies one version of a package: @namespace/name:version.
type Spec struct {
	Namespace string
	Name      string
	Version   Version
}

// String renders the spec in its canonical @namespace/name:version form.
func (s Spec) String() string {
	return fmt.Sprintf("@%s/%s:%s", s.Namespace, s.Name, s.Version)
}

// ParseSpec parses a package specification such as "@preview/cetz:0.2.0".
func ParseSpec(raw string) (Spec, error) {
	rest, ok := strings.CutPrefix(raw, "@")
	if !ok {
		return Spec{}, hosterrors.NewInvalidPackageError(raw, "must start with @")
	}

	namespace, rest, ok := strings.Cut(rest, "/")
	if !ok {
		return Spec{}, hosterrors.NewInvalidPackageError(raw, "missing package name")
	}
	if !isIdent(namespace) {
		return Spec{}, hosterrors.NewInvalidPackageError(raw, fmt.Sprintf("%q is not a valid namespace", namespace))
	}

	name, version, ok := strings.Cut(rest, ":")
	if !ok {
		return Spec{}, hosterrors.NewInvalidPackageError(raw, "missing package version")
	}
	if !isIdent(name) {
		return Spec{}, hosterrors.NewInvalidPackageError(raw, fmt.Sprintf("%q is not a valid package name", name))
	}

	v, err := ParseVersion(version)
	if err != nil {
		return Spec{}, hosterrors.NewInvalidPackageError(raw, err.Error())
	}

	return Spec{Namespace: namespace, Name: name, Version: v}, nil
}

// isIdent reports whether s is an identifier: a letter or underscore
// followed by letters, digits, underscores or hyphens.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-'):
		default:
			return false
		}
	}
	return true
}
