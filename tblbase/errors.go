package tblbase

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ParseError is returned when an artifact or canonical table file does not
// have the structure expected for its kind.
type ParseError struct {
	Kind ArtifactKind
	Path string
	// Line is the 1-based line (or record) the error was found on, 0 if
	// unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error parsing %s %s (line %d): %v", e.Kind, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("error parsing %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps err in a ParseError.
func NewParseError(kind ArtifactKind, path string, line int, err error) *ParseError {
	return &ParseError{Kind: kind, Path: path, Line: line, Err: err}
}

// ParseErrorf formats a new ParseError.
func ParseErrorf(kind ArtifactKind, path string, line int, format string, args ...interface{}) *ParseError {
	return NewParseError(kind, path, line, errors.Newf(format, args...))
}

// IsParseError returns whether err contains a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
