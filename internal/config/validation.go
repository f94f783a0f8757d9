package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/imprint/internal/value"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

func (vr *ValidationResult) addError(field string, v interface{}, message string, suggestions ...string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: v, Message: message, Suggestions: suggestions})
}

func (vr *ValidationResult) addWarning(field string, v interface{}, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: v, Message: message, Suggestions: suggestions})
}

// Check inspects the filesystem locations a loaded configuration refers to.
// Missing inputs the compilation needs are errors; missing optional
// locations are warnings.
func Check(config *Config) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if info, err := os.Stat(config.Root); err != nil {
		result.addError("root", config.Root, "directory does not exist",
			"Create the directory or pass --root")
	} else if !info.IsDir() {
		result.addError("root", config.Root, "not a directory")
	}

	if config.Main != "" && !pathExists(resolve(config.Root, config.Main)) {
		result.addError("main", config.Main, "main document not found",
			"Paths are relative to the project root")
	}

	for _, path := range config.Fonts.Paths {
		if !pathExists(path) {
			result.addWarning("fonts.paths", path, "font path does not exist")
		}
	}
	if config.Fonts.IgnoreSystem && len(config.Fonts.Paths) == 0 {
		result.addWarning("fonts", nil, "system fonts are ignored and no font paths are set",
			"Documents will only render if the engine embeds its own fonts")
	}

	if config.Packages.LocalDir != "" && !pathExists(config.Packages.LocalDir) {
		result.addWarning("packages.local_dir", config.Packages.LocalDir, "local package directory does not exist")
	}
	if config.Packages.Offline && !pathExists(config.Packages.CacheDir) {
		result.addWarning("packages.offline", true, "offline mode with an empty package cache",
			"Run 'imprint fetch' while online to populate the cache")
	}

	if config.Data != "" {
		if !pathExists(config.Data) {
			result.addError("data", config.Data, "data file not found")
		} else if _, ok := value.FormatOf(config.Data); !ok {
			result.addError("data", config.Data, "unsupported data file extension",
				"Use .json, .jsonc, .yaml, .yml, .toml or .cbor")
		}
	}

	return result
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
