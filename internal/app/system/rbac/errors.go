package rbac

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate")
	ErrDecisionFailure = errors.New("decision failure")
)

// Error carries a caller-facing message and its kind. Err, when set, is
// the underlying cause and is never shown to callers.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Is matches the kind sentinel.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Message returns the caller-facing text.
func (e *Error) Message() string { return e.Msg }

// Validation returns an ErrValidation error.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound error.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

// Duplicate returns an ErrDuplicate error.
func Duplicate(msg string) error {
	return &Error{Kind: ErrDuplicate, Msg: msg}
}

func decisionFailure(op string, err error) error {
	return &Error{Kind: ErrDecisionFailure, Msg: op, Err: err}
}
