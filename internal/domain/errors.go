package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the session engine matches exactly one
// of these through errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrNoData     = errors.New("no data")
)

// Error is a kinded error with a caller-visible message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Is lets two *Error values with the same kind and message compare equal, so
// package-level sentinels built with the helpers below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func ValidationError(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func ConflictError(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func ForbiddenError(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

func NoDataError(format string, args ...any) error {
	return &Error{Kind: ErrNoData, Message: fmt.Sprintf(format, args...)}
}

// Session errors
var (
	ErrUserAlreadyInSession = ConflictError("user already in session")
	ErrUserNotInSession     = ConflictError("user not in session")
	ErrInvalidVote          = ValidationError("invalid vote")
	ErrInvalidStatus        = ValidationError("invalid status")
	ErrNoYesSwipes          = NoDataError("no yes swipes recorded")
	ErrNotSessionCreator    = ForbiddenError("only the session creator can change its status")
)
