package domain

import "errors"

// Error kinds. Every *Error unwraps to exactly one of these, so callers
// classify with errors.Is(err, domain.ErrNotFound).
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("access forbidden")
)

// Error is a terminal, user-facing failure of a lifecycle operation.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewValidationError builds a validation failure with a literal message.
func NewValidationError(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// IsValidation, IsNotFound and IsForbidden classify err by kind.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
