package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument signals that no usable text was supplied.
	ErrEmptyDocument = errors.New("empty document")
	// ErrInvalidResult signals that the synthesis collaborator returned a
	// structure violating the IRAC schema.
	ErrInvalidResult = errors.New("invalid synthesis result")
	// ErrSynthesis signals a synthesis provider failure (transport, API).
	ErrSynthesis = errors.New("synthesis provider error")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// SchemaError wraps ErrInvalidResult with the JSON path of the violation,
// so callers can tell exactly which field the collaborator got wrong.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s at %q: %s", ErrInvalidResult.Error(), e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrInvalidResult }

// NewSchemaError creates a schema violation error for the given JSON path.
func NewSchemaError(path, format string, args ...any) error {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
