package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
// Resources owned by another tenant are reported the same way.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientFunds indicates that an outgoing movement exceeds the available balance,
// or that a supplier payment exceeds the outstanding debt.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidState indicates that the operation is not allowed in the entity's current state
// (cancelling an already cancelled transaction, paying a cancelled booking, transferring to self).
var ErrInvalidState = errors.New("invalid state")

// ErrUnauthorized indicates missing or invalid caller identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInternal indicates a failure of the underlying infrastructure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code together with the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets infrastructure failures (5xx) match ErrInternal.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= 500
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError builds an error wrapping ErrNotFound for the given entity.
func NewNotFoundError(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}
