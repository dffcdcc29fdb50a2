package ml

import (
	"errors"
	"fmt"
)

// ErrSingleClass is returned when the training target holds only one class.
var ErrSingleClass = errors.New("training target must contain both classes")

// ErrNoFeatures is returned when a training table has no feature columns.
var ErrNoFeatures = errors.New("training table has no feature columns")

// SchemaError reports an input table that does not match the fitted
// pipeline: a required column is absent, or a numeric cell does not parse.
type SchemaError struct {
	Column string
	Row    int // 1-based data row, 0 when the whole column is at fault
	Value  string
}

func (e *SchemaError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("schema error: missing required column %q", e.Column)
	}
	return fmt.Sprintf("schema error: column %q row %d: value %q is not numeric", e.Column, e.Row, e.Value)
}

// ArtifactLoadError reports a missing, unreadable or incompatible artifact.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("failed to load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// IsSchemaError reports whether err wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
