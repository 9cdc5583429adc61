package service

import "fmt"

// ServiceError describes a failure inside one of the application services.
// It keeps the operation that failed together with the underlying cause so
// API handlers can log context while mapping the error to a response.
//
// Sentinel errors from the store layer (ErrDeckNotFound, ErrCardNotFound,
// ErrDeckNameExists, ErrInvalidEntity) pass through the services unwrapped;
// ServiceError marks the unexpected failures.
type ServiceError struct {
	// Operation identifies the service operation that failed, such as
	// "create_deck" or "postpone_card".
	Operation string

	// Message is a human-readable description of the failure.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
