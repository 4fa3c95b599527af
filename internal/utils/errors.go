package utils

import "fmt"

// DataIntegrityError represents a dataset or dataset element that failed
// structural validation. It is never retried automatically.
type DataIntegrityError struct {
	// Field is the path of the offending field, e.g. "recommendations[0].type".
	Field   string
	Message string
}

// Error returns the error message string.
func (e *DataIntegrityError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewDataIntegrityError creates a new DataIntegrityError for a field path.
//
// Parameters:
//   - field: Path of the field that failed validation.
//   - format: The format string.
//   - args: Arguments for the format string.
//
// Returns:
//   - An error interface wrapping the DataIntegrityError.
func NewDataIntegrityError(field, format string, args ...interface{}) error {
	return &DataIntegrityError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// FetchError represents a transport-level failure while fetching a dataset.
// Callers may retry; this package never retries on its own.
type FetchError struct {
	Message string
	Err     error
}

// Error returns the error message string.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError wrapping an underlying cause.
func NewFetchError(message string, err error) error {
	return &FetchError{
		Message: message,
		Err:     err,
	}
}

// AuthOperationError wraps a failed login, signup, refresh or sign-out call
// with a human-readable message.
type AuthOperationError struct {
	Operation string
	Message   string
	Err       error
}

// Error returns the error message string.
func (e *AuthOperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying auth backend error.
func (e *AuthOperationError) Unwrap() error {
	return e.Err
}

// NewAuthOperationError creates a new AuthOperationError for an operation.
func NewAuthOperationError(operation, message string, err error) error {
	return &AuthOperationError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
