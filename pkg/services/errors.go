// Package services implements the application-level operations over stored
// bot schemas: CRUD, import, validation, repair and simulation.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrSchemaNil          = errors.New("schema cannot be nil")
	ErrSchemaNameRequired = errors.New("schema name is required")
	ErrGraphRequired      = errors.New("schema must contain a graph")
	ErrDocumentRejected   = errors.New("document is not a bot schema")

	// Business logic conflicts (409 Conflict).
	ErrGraphNotExecutable = errors.New("graph has validation errors and cannot execute")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrSchemaNil) ||
		errors.Is(err, ErrSchemaNameRequired) ||
		errors.Is(err, ErrGraphRequired) ||
		errors.Is(err, ErrDocumentRejected)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrGraphNotExecutable)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
