package packages

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the manifest name at the root of every package.
const ManifestFile = "typst.toml"

// Manifest is the subset of a package manifest the host checks.
type Manifest struct {
	Package PackageInfo `toml:"package"`
}

// PackageInfo is the [package] table of a manifest.
type PackageInfo struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Entrypoint  string   `toml:"entrypoint"`
	Authors     []string `toml:"authors"`
	License     string   `toml:"license"`
	Description string   `toml:"description"`
	Compiler    string   `toml:"compiler"`
}

// ReadManifest decodes the manifest in dir.
func ReadManifest(dir string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, ManifestFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// checkManifest verifies that an unpacked package describes itself as spec.
// Archives without a manifest are accepted.
func checkManifest(dir string, spec Spec) error {
	m, err := ReadManifest(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ManifestFile, err)
	}

	if m.Package.Name != "" && m.Package.Name != spec.Name {
		return fmt.Errorf("%s names package %q, expected %q", ManifestFile, m.Package.Name, spec.Name)
	}
	if m.Package.Version != "" {
		v, err := ParseVersion(m.Package.Version)
		if err != nil {
			return fmt.Errorf("%s: %w", ManifestFile, err)
		}
		if v != spec.Version {
			return fmt.Errorf("%s declares version %s, expected %s", ManifestFile, v, spec.Version)
		}
	}
	if m.Package.Entrypoint != "" {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(m.Package.Entrypoint))); err != nil {
			return fmt.Errorf("entrypoint %q: %w", m.Package.Entrypoint, err)
		}
	}
	return nil
}
