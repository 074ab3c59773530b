package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownHemisphere is returned for any hemisphere outside {north, south}.
	ErrUnknownHemisphere = errors.New("unknown hemisphere")

	// ErrMissingInputFile is returned when no raw binary exists for a job.
	ErrMissingInputFile = errors.New("missing input file")

	// ErrMissingVariable is returned when a container lacks a variable the
	// pipeline writes, or when strict rendering leaves a placeholder unresolved.
	ErrMissingVariable = errors.New("missing variable")

	// ErrInternal marks failures that are bugs rather than bad input, such as
	// a recovered panic inside a job.
	ErrInternal = errors.New("internal error")
)

// SchemaCompileError reports a failed descriptor compilation. The descriptor
// file is left on disk for diagnosis.
type SchemaCompileError struct {
	Descriptor string
	Diagnostic string
	Err        error
}

func (e *SchemaCompileError) Error() string {
	msg := strings.TrimSpace(e.Diagnostic)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("schema compile %s: %s", e.Descriptor, msg)
}

func (e *SchemaCompileError) Unwrap() error { return e.Err }

// GridSizeMismatchError reports a raw payload whose cell count does not
// match the hemisphere grid.
type GridSizeMismatchError struct {
	Expected int
	Actual   int
}

func (e *GridSizeMismatchError) Error() string {
	return fmt.Sprintf("grid data size %d doesn't match expected %d", e.Actual, e.Expected)
}

// Failure reasons reported by Classify.
const (
	ReasonUnknownHemisphere = "unknown_hemisphere"
	ReasonMissingInput      = "missing_input"
	ReasonSchemaCompile     = "schema_compile"
	ReasonMissingVariable   = "missing_variable"
	ReasonGridSize          = "grid_size_mismatch"
	ReasonIO                = "io"
	ReasonCanceled          = "canceled"
	ReasonInternal          = "internal"
)

// Classify maps a job error onto a stable, low-cardinality reason label.
func Classify(err error) string {
	var compileErr *SchemaCompileError
	var sizeErr *GridSizeMismatchError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownHemisphere):
		return ReasonUnknownHemisphere
	case errors.Is(err, ErrMissingInputFile):
		return ReasonMissingInput
	case errors.As(err, &compileErr):
		return ReasonSchemaCompile
	case errors.Is(err, ErrMissingVariable):
		return ReasonMissingVariable
	case errors.As(err, &sizeErr):
		return ReasonGridSize
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.Is(err, ErrInternal):
		return ReasonInternal
	}
	return ReasonIO
}
