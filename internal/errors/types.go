package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeEncoding    ErrorType = "encoding"
	ErrorTypeAccess      ErrorType = "access"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeArchive     ErrorType = "archive"
	ErrorTypeFont        ErrorType = "font"
	ErrorTypeCompilation ErrorType = "compilation"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeInternal    ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeIsDirectory       = "ERR_IS_DIRECTORY"
	ErrCodeInvalidEncoding   = "ERR_INVALID_ENCODING"
	ErrCodeAccessDenied      = "ERR_ACCESS_DENIED"
	ErrCodeIO                = "ERR_IO"
	ErrCodeNetworkFailed     = "ERR_NETWORK_FAILED"
	ErrCodeMalformedArchive  = "ERR_MALFORMED_ARCHIVE"
	ErrCodePackageNotFound   = "ERR_PACKAGE_NOT_FOUND"
	ErrCodeInvalidPackage    = "ERR_INVALID_PACKAGE"
	ErrCodeFontUnavailable   = "ERR_FONT_UNAVAILABLE"
	ErrCodeCompilationFailed = "ERR_COMPILATION_FAILED"
	ErrCodeExportFailed      = "ERR_EXPORT_FAILED"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeInternalError     = "ERR_INTERNAL"
)

// HostError is a structured error carrying the category of a resolution
// failure and the path or resource it concerns.
type HostError struct {
	Type    ErrorType
	Code    string
	Message string
	Path    string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *HostError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	parts = append(parts, e.Message)

	if e.Path != "" {
		parts = append(parts, "("+e.Path+")")
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *HostError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *HostError) Is(target error) bool {
	var t *HostError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *HostError) WithContext(key string, value interface{}) *HostError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the path or resource the error concerns.
func (e *HostError) WithPath(path string) *HostError {
	e.Path = path

	return e
}

// Sentinels for errors.Is comparisons. Only Type and Code are compared.
var (
	ErrNotFound          = &HostError{Type: ErrorTypeNotFound, Code: ErrCodeFileNotFound}
	ErrPackageNotFound   = &HostError{Type: ErrorTypeNotFound, Code: ErrCodePackageNotFound}
	ErrInvalidEncoding   = &HostError{Type: ErrorTypeEncoding, Code: ErrCodeInvalidEncoding}
	ErrAccessDenied      = &HostError{Type: ErrorTypeAccess, Code: ErrCodeAccessDenied}
	ErrIsDirectory       = &HostError{Type: ErrorTypeIO, Code: ErrCodeIsDirectory}
	ErrNetworkFailed     = &HostError{Type: ErrorTypeNetwork, Code: ErrCodeNetworkFailed}
	ErrMalformedArchive  = &HostError{Type: ErrorTypeArchive, Code: ErrCodeMalformedArchive}
	ErrFontUnavailable   = &HostError{Type: ErrorTypeFont, Code: ErrCodeFontUnavailable}
	ErrCompilationFailed = &HostError{Type: ErrorTypeCompilation, Code: ErrCodeCompilationFailed}
	ErrExportFailed      = &HostError{Type: ErrorTypeCompilation, Code: ErrCodeExportFailed}
	ErrConfigInvalid     = &HostError{Type: ErrorTypeConfig, Code: ErrCodeConfigInvalid}
)

// Error creation functions

// NewFileNotFoundError creates a not-found error for the attempted path.
func NewFileNotFoundError(path string, cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeFileNotFound,
		Message: "file not found",
		Path:    path,
		Cause:   cause,
	}
}

// NewIsDirectoryError reports that a path names a directory, not a file.
func NewIsDirectoryError(path string) *HostError {
	return &HostError{
		Type:    ErrorTypeIO,
		Code:    ErrCodeIsDirectory,
		Message: "path is a directory",
		Path:    path,
	}
}

// NewIOError creates an I/O error.
func NewIOError(path string, cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeIO,
		Code:    ErrCodeIO,
		Message: "i/o failure",
		Path:    path,
		Cause:   cause,
	}
}

// NewInvalidEncodingError reports a file that is not valid UTF-8 text.
func NewInvalidEncodingError(path string) *HostError {
	return &HostError{
		Type:    ErrorTypeEncoding,
		Code:    ErrCodeInvalidEncoding,
		Message: "file is not valid utf-8",
		Path:    path,
	}
}

// NewAccessDeniedError reports a path outside the permitted root or a
// resource that could not be locked.
func NewAccessDeniedError(path, reason string) *HostError {
	return &HostError{
		Type:    ErrorTypeAccess,
		Code:    ErrCodeAccessDenied,
		Message: "access denied: " + reason,
		Path:    path,
	}
}

// NewNetworkError reports a download that failed after its retry.
func NewNetworkError(url string, cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeNetwork,
		Code:    ErrCodeNetworkFailed,
		Message: "network request failed",
		Path:    url,
		Cause:   cause,
	}
}

// NewMalformedArchiveError reports a package archive that could not be
// decompressed or unpacked.
func NewMalformedArchiveError(pkg string, cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeArchive,
		Code:    ErrCodeMalformedArchive,
		Message: "malformed package archive",
		Path:    pkg,
		Cause:   cause,
	}
}

// NewPackageNotFoundError reports a package missing from the registry.
func NewPackageNotFoundError(pkg string, cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodePackageNotFound,
		Message: "package not found",
		Path:    pkg,
		Cause:   cause,
	}
}

// NewInvalidPackageError reports an unparsable package specification.
func NewInvalidPackageError(spec, reason string) *HostError {
	return &HostError{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeInvalidPackage,
		Message: "invalid package specification: " + reason,
		Path:    spec,
	}
}

// NewFontUnavailableError reports a font slot that cannot be served.
func NewFontUnavailableError(index int, cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeFont,
		Code:    ErrCodeFontUnavailable,
		Message: fmt.Sprintf("font %d unavailable", index),
		Cause:   cause,
	}
}

// NewExportError reports a serializer failure.
func NewExportError(cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeCompilation,
		Code:    ErrCodeExportFailed,
		Message: "export failed",
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeConfigInvalid,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *HostError {
	return &HostError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the category of err, or "" when err is not a HostError.
func TypeOf(err error) ErrorType {
	var he *HostError
	if errors.As(err, &he) {
		return he.Type
	}

	return ""
}

// IsNotFound checks if an error reports a missing file or package.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}
