package errors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestHostErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("open /srv/doc/a.typ: no such file or directory")
	err := NewFileNotFoundError("/srv/doc/a.typ", cause)

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_FILE_NOT_FOUND]")
	assert.Contains(t, msg, "(/srv/doc/a.typ)")
	assert.Contains(t, msg, "no such file or directory")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestHostErrorIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{"not found", NewFileNotFoundError("a", nil), ErrNotFound, true},
		{"wrapped not found", fmt.Errorf("resolving: %w", NewFileNotFoundError("a", nil)), ErrNotFound, true},
		{"encoding", NewInvalidEncodingError("a"), ErrInvalidEncoding, true},
		{"access", NewAccessDeniedError("/../x", "escapes root"), ErrAccessDenied, true},
		{"network", NewNetworkError("https://x", nil), ErrNetworkFailed, true},
		{"archive", NewMalformedArchiveError("@preview/a:1.0.0", nil), ErrMalformedArchive, true},
		{"font", NewFontUnavailableError(7, nil), ErrFontUnavailable, true},
		{"compilation", NewCompilationError(nil), ErrCompilationFailed, true},
		{"mismatched code", NewIsDirectoryError("a"), ErrNotFound, false},
		{"plain error", errors.New("boom"), ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeNetwork, TypeOf(NewNetworkError("u", nil)))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.True(t, IsNotFound(NewPackageNotFoundError("@preview/x:1.0.0", nil)))
	assert.False(t, IsNotFound(NewIOError("a", nil)))
}

func TestWithContext(t *testing.T) {
	err := NewInternalError("boom", nil).WithContext("attempt", 2).WithPath("/x")
	assert.Equal(t, 2, err.Context["attempt"])
	assert.Equal(t, "/x", err.Path)
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "unknown variable: foo",
		Path:     "/main.typ",
		Line:     3,
		Column:   7,
		Hints:    []string{"did you mean `for`?"},
	}
	assert.Equal(t, "/main.typ:3:7: error: unknown variable: foo (hint: did you mean `for`?)", d.String())

	bare := Diagnostic{Severity: SeverityWarning, Message: "unused"}
	assert.Equal(t, "warning: unused", bare.String())
}

func TestNewCompilationError(t *testing.T) {
	diags := []Diagnostic{
		{Severity: SeverityError, Message: "first"},
		{Severity: SeverityError, Message: "second"},
	}

	err := NewCompilationError(diags)
	assert.Equal(t, "[ERR_COMPILATION_FAILED] compilation failed: error: first, error: second", err.Error())

	wrapped := fmt.Errorf("compile: %w", err)
	got := Diagnostics(wrapped)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[1].Message)

	diags[0].Message = "mutated"
	assert.Equal(t, "first", Diagnostics(err)[0].Message)

	assert.Nil(t, Diagnostics(errors.New("plain")))
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.HasErrors())

	c.Warn("/fonts/a.ttf", "unreadable face")
	assert.False(t, c.HasErrors())

	c.Add(Diagnostic{Severity: SeverityError, Message: "bad"})
	assert.True(t, c.HasErrors())
	assert.Len(t, Errors(c.All()), 1)

	all := c.All()
	all[0].Message = "changed"
	assert.Equal(t, "unreadable face", c.All()[0].Message)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCollectorConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Warn(fmt.Sprintf("p%d", i), "w")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
