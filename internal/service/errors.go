package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/resource"
	"github.com/phrazzld/resource-api/internal/store"
)

// ServiceError wraps unexpected failures from the resource service with the
// operation that failed.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("resource service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err unless it is one of the expected conditions
// (validation, not found, unknown type), which are returned as is so the
// API layer can map them.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, resource.ErrUnknownType) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
