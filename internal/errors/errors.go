package errors

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Severity represents the severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single message reported by the document engine or by the
// host while serving it.
type Diagnostic struct {
	Severity Severity
	Message  string
	Path     string
	Line     int
	Column   int
	Hints    []string
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Path != "" {
		b.WriteString(d.Path)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
			if d.Column > 0 {
				fmt.Fprintf(&b, ":%d", d.Column)
			}
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Message)
	for _, hint := range d.Hints {
		b.WriteString(" (hint: ")
		b.WriteString(hint)
		b.WriteString(")")
	}
	return b.String()
}

// NewCompilationError flattens engine diagnostics into one error. The message
// joins every diagnostic with ", "; the structured list stays reachable
// through Diagnostics.
func NewCompilationError(diags []Diagnostic) *HostError {
	messages := make([]string, 0, len(diags))
	for _, d := range diags {
		messages = append(messages, d.String())
	}

	kept := make([]Diagnostic, len(diags))
	copy(kept, diags)

	return &HostError{
		Type:    ErrorTypeCompilation,
		Code:    ErrCodeCompilationFailed,
		Message: "compilation failed: " + strings.Join(messages, ", "),
		Context: map[string]interface{}{"diagnostics": kept},
	}
}

// Diagnostics returns the diagnostics carried by a compilation error.
func Diagnostics(err error) []Diagnostic {
	var he *HostError
	if !errors.As(err, &he) || he.Context == nil {
		return nil
	}
	diags, _ := he.Context["diagnostics"].([]Diagnostic)
	return diags
}

// Collector collects diagnostics from concurrent producers.
type Collector struct {
	diagnostics []Diagnostic
	mutex       sync.RWMutex
}

// NewCollector creates a new diagnostic collector
func NewCollector() *Collector {
	return &Collector{
		diagnostics: make([]Diagnostic, 0),
	}
}

// Add records a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diagnostics = append(c.diagnostics, d)
}

// Warn records a warning with a path and message.
func (c *Collector) Warn(path, message string) {
	c.Add(Diagnostic{Severity: SeverityWarning, Path: path, Message: message})
}

// All returns a copy of the collected diagnostics.
func (c *Collector) All() []Diagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]Diagnostic, len(c.diagnostics))
	copy(result, c.diagnostics)
	return result
}

// HasErrors returns true if any diagnostic has error severity.
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, d := range c.diagnostics {
		if d.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.diagnostics)
}

// Clear drops all collected diagnostics.
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diagnostics = c.diagnostics[:0]
}

// Errors returns only the diagnostics with error severity.
func Errors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity >= SeverityError {
			out = append(out, d)
		}
	}
	return out
}
