// Package errors provides error code definitions for the SupplierDesk API.
package errors

import "fmt"

// ErrorCode is a stable machine-readable error identifier carried across the
// API boundary.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrDuplicate  ErrorCode = "DUPLICATE"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Database errors
	ErrDatabase   ErrorCode = "DATABASE_ERROR"
	ErrMigration  ErrorCode = "MIGRATION_FAILED"
	ErrConstraint ErrorCode = "CONSTRAINT_VIOLATION"

	// Supplier errors
	ErrSupplierNotFound ErrorCode = "SUPPLIER_NOT_FOUND"
	ErrSupplierInvalid  ErrorCode = "SUPPLIER_INVALID"
	ErrSupplierCodeDup  ErrorCode = "SUPPLIER_CODE_DUPLICATE"

	// Order errors
	ErrOrderNotFound   ErrorCode = "ORDER_NOT_FOUND"
	ErrOrderInvalid    ErrorCode = "ORDER_INVALID"
	ErrOrderTransition ErrorCode = "ORDER_INVALID_TRANSITION"

	// Connection errors
	ErrConnectionNotFound ErrorCode = "CONNECTION_NOT_FOUND"
	ErrConnectionInvalid  ErrorCode = "CONNECTION_INVALID"
	ErrConnectionProbe    ErrorCode = "CONNECTION_PROBE_FAILED"

	// Mapping errors
	ErrMappingInvalid    ErrorCode = "MAPPING_INVALID"
	ErrMappingIncomplete ErrorCode = "MAPPING_INCOMPLETE"

	// Sync errors
	ErrSyncNotConfigured ErrorCode = "SYNC_NOT_CONFIGURED"
	ErrSyncFailed        ErrorCode = "SYNC_FAILED"
	ErrSyncRunning       ErrorCode = "SYNC_ALREADY_RUNNING"

	// History errors
	ErrNothingToUndo ErrorCode = "NOTHING_TO_UNDO"
	ErrNothingToRedo ErrorCode = "NOTHING_TO_REDO"

	// Export errors
	ErrExportFailed ErrorCode = "EXPORT_FAILED"

	// Crypto errors
	ErrCryptoFailed ErrorCode = "CRYPTO_FAILED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error is of a specific code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of an error, or ErrInternal for plain errors.
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternal
}
