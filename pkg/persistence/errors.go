package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrSchemaNotFound indicates no schema exists for the given identifier.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrSchemaAlreadyExists indicates a schema with the same identifier already exists.
	ErrSchemaAlreadyExists = errors.New("schema already exists")

	// ErrInvalidSchemaID indicates the identifier cannot name a stored schema.
	ErrInvalidSchemaID = errors.New("invalid schema id")
)

// SchemaError wraps schema storage errors with operation context.
type SchemaError struct {
	Op       string // Operation being performed (e.g. "GetByID", "Save", "Delete")
	SchemaID string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s operation failed for schema %s: %v", e.Op, e.SchemaID, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func (e *SchemaError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSchemaError creates a new schema error with context.
func NewSchemaError(op, schemaID string, err error) *SchemaError {
	return &SchemaError{
		Op:       op,
		SchemaID: schemaID,
		Err:      err,
	}
}

// IsSchemaNotFound checks if an error indicates a schema was not found.
func IsSchemaNotFound(err error) bool {
	return errors.Is(err, ErrSchemaNotFound)
}
