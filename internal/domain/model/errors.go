package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelNotReady is returned when scoring is attempted before a bundle has been loaded.
	ErrModelNotReady = errors.New("model not ready")

	// ErrEmptyDataset is returned when fitting on a dataset with no rows.
	ErrEmptyDataset = errors.New("dataset has no records")

	// ErrInvalidSchema is wrapped by every schema registry validation failure.
	ErrInvalidSchema = errors.New("invalid schema registry")

	// ErrBundleNotFound is returned when a store holds no bundle.
	ErrBundleNotFound = errors.New("bundle not found")

	// ErrPredictionNotFound is returned when an audited prediction does not exist.
	ErrPredictionNotFound = errors.New("prediction not found")
)

// MissingFieldError reports raw fields the schema requires but the record lacks.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// InvalidFieldError reports a field whose value has the wrong kind.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// SchemaMismatchError reports disagreeing widths between bundle components.
type SchemaMismatchError struct {
	Component string
	Expected  int
	Got       int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s has %d columns, feature order has %d", e.Component, e.Got, e.Expected)
}

// ColumnCollisionError is returned when two sources would produce the same column name.
type ColumnCollisionError struct {
	Column  string
	Sources []ColumnSource
}

func (e *ColumnCollisionError) Error() string {
	if len(e.Sources) < 2 {
		return fmt.Sprintf("column name collision: %q", e.Column)
	}
	parts := make([]string, len(e.Sources))
	for i, src := range e.Sources {
		parts[i] = src.String()
	}
	return fmt.Sprintf("column name collision: %q is produced by %s", e.Column, strings.Join(parts, " and "))
}

func (e *ColumnCollisionError) Unwrap() error {
	return ErrInvalidSchema
}

// RecordError attaches the position of a failing record inside a batch or dataset.
type RecordError struct {
	Err   error
	Index int
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// SourceAttempt is the outcome of trying one candidate artifact source.
type SourceAttempt struct {
	Err    error
	Source string
}

// ArtifactLoadError is returned when no candidate source produced a valid bundle.
type ArtifactLoadError struct {
	Attempts []SourceAttempt
}

func (e *ArtifactLoadError) Error() string {
	if len(e.Attempts) == 0 {
		return "artifact load failed: no sources configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Source, a.Err))
	}
	return "artifact load failed: " + strings.Join(parts, "; ")
}

func (e *ArtifactLoadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// IsRequestError reports whether err was caused by the caller's input.
func IsRequestError(err error) bool {
	var missing *MissingFieldError
	var invalid *InvalidFieldError
	return errors.As(err, &missing) || errors.As(err, &invalid)
}
