package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers (CLI, report generators).
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Error is the typed error returned by every tempo service
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports bad input (date ordering, unsupported granularity, missing rule fields).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a clash with existing data, e.g. overlapping pauses.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports that the acting user does not own the entity.
// The message must stay generic.
func Forbidden(what string) *Error {
	return &Error{Kind: KindAuthorization, Message: "access denied to " + what}
}

// NotFound reports a missing entity id.
func NotFound(what string, id uint) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s #%d not found", what, id)}
}

// Internal wraps an unexpected infrastructure failure.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is a tempo error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
