package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataUnavailable means the backing file is missing, unreadable or
	// not parsable as comma-delimited text. It is fatal to the render cycle.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrSchemaMismatch means a column the cleaner relies on is absent.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrColumnCollision means two columns share a name after normalization.
	// It is always reported wrapped inside ErrSchemaMismatch.
	ErrColumnCollision = errors.New("column collision")
)

// RowShapeError reports a row whose field count differs from the header.
type RowShapeError struct {
	Row  int
	Got  int
	Want int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("row %d has %d fields, want %d", e.Row, e.Got, e.Want)
}

// MissingColumnsError lists the required columns absent from a table.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required column(s): " + strings.Join(e.Columns, ", ")
}

func (e *MissingColumnsError) Unwrap() error { return ErrSchemaMismatch }

// CollisionError lists original column names that normalize to the same name.
type CollisionError struct {
	Name    string
	Sources []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s: %q produced by %s", ErrColumnCollision, e.Name, strings.Join(quoteAll(e.Sources), ", "))
}

func (e *CollisionError) Unwrap() []error { return []error{ErrSchemaMismatch, ErrColumnCollision} }

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
