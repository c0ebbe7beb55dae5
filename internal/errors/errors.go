package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a curatr error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrConflict           ErrorCode = "CONFLICT"            // 409
	ErrCancelled          ErrorCode = "CANCELLED"           // 499
	ErrInternal           ErrorCode = "INTERNAL"            // 500
	ErrStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE" // 503
)

// CuratrError represents a structured error with code, status, and details.
type CuratrError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *CuratrError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CuratrError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CuratrError {
	return &CuratrError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for an id absent from a store.
// kind names the entity ("recipient", "item").
func NewNotFound(kind, identifier string) *CuratrError {
	return &CuratrError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewAlreadySaved creates a 409 error when an item is already in the
// Memory Box for a recipient.
func NewAlreadySaved(itemID int, recipientID string) *CuratrError {
	return &CuratrError{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("item %d is already saved for recipient %s", itemID, recipientID),
		Details: map[string]any{"item_id": itemID, "recipient_id": recipientID},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *CuratrError {
	return &CuratrError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCancelled creates a 499 error when an operation is cancelled via context.
func NewCancelled(op string) *CuratrError {
	return &CuratrError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewStorageUnavailable creates a 503 error when the backing store cannot be
// read or written (disk full, locked database, closed handle).
func NewStorageUnavailable(err error) *CuratrError {
	msg := "storage unavailable"
	if err != nil {
		msg = fmt.Sprintf("storage unavailable: %v", err)
	}
	return &CuratrError{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CuratrError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CuratrError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// As returns the CuratrError in err's chain, wrapping anything else as INTERNAL.
func As(err error) *CuratrError {
	var cErr *CuratrError
	if stderrors.As(err, &cErr) {
		return cErr
	}
	return NewInternal(err)
}

// Is checks if an error is a CuratrError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *CuratrError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}
