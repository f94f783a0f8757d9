package vfs

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
)

// Source is decoded document text with the id it was read from.
type Source struct {
	id   FileID
	text string
}

// NewSource wraps already decoded text.
func NewSource(id FileID, text string) *Source {
	return &Source{id: id, text: text}
}

// ID returns the id the source belongs to.
func (s *Source) ID() FileID { return s.id }

// Text returns the full text.
func (s *Source) Text() string { return s.text }

// Len returns the text length in bytes.
func (s *Source) Len() int { return len(s.text) }

// LineCount returns the number of lines in the text.
func (s *Source) LineCount() int {
	if s.text == "" {
		return 0
	}
	n := strings.Count(s.text, "\n")
	if !strings.HasSuffix(s.text, "\n") {
		n++
	}
	return n
}

// Decode turns raw bytes into text. Input must be valid UTF-8; a leading
// byte order mark is dropped.
func Decode(id FileID, data []byte) (*Source, error) {
	if !utf8.Valid(data) {
		return nil, hosterrors.NewInvalidEncodingError(id.String())
	}
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return nil, hosterrors.NewInvalidEncodingError(id.String())
	}
	return NewSource(id, string(text)), nil
}
