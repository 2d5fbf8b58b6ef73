package apperror

import (
	"errors"
	"fmt"
)

// Error kinds shared by every workforce component. Domain errors wrap one of
// these so callers can branch with errors.Is without knowing the domain.
var (
	ErrValidation          = errors.New("validation error")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrImmutableState      = errors.New("immutable state")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrIntegrity           = errors.New("data integrity error")
	ErrNotFound            = errors.New("not found")
)

// Error carries a machine readable code and a message on top of a kind.
type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a kind and code to an existing error. Returns nil for nil err.
func Wrap(err error, kind error, code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, message string) *Error {
	return New(ErrValidation, code, message)
}

func Integrity(message string, err error) *Error {
	return &Error{Kind: ErrIntegrity, Code: "INTEGRITY_ERROR", Message: message, Err: err}
}

// CodeOf returns the code of the first *Error in the chain, or "".
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
