package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPath is returned when a lookup names no category segments.
	ErrEmptyPath = errors.New("category path must contain at least one segment")
	// ErrEmptyCategoryPath is returned when a data file sits at the catalog root.
	ErrEmptyCategoryPath = errors.New("data file must be inside a category directory")
)

// CategoryNotFoundError reports a lookup that matched no entries.
type CategoryNotFoundError struct {
	Path string
}

func (e *CategoryNotFoundError) Error() string {
	return "no compounds found for category path: " + e.Path
}

// ReadError wraps an I/O failure while loading catalog data.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseError wraps a decoding failure while loading catalog data.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
