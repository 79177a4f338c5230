package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable, client-facing category of an error.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is the structured error returned by services. Code identifies the
// specific failure within its Kind, Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code, so wrapped copies of a sentinel
// still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of e that carries cause for logging.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation builds a validation error with a client-visible message.
func Validation(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Code: "validation_error", Message: message, Err: cause}
}

// Internal hides cause behind a generic message.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: "Internal server error", Err: cause}
}

// KindOf reports the Kind of err, defaulting to KindInternal for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Auth errors
var (
	ErrEmailTaken          = NewError(KindConflict, "email_taken", "Email already registered")
	ErrInvalidCredentials  = NewError(KindUnauthorized, "invalid_credentials", "Incorrect email or password")
	ErrInvalidRefreshToken = NewError(KindUnauthorized, "invalid_refresh_token", "Invalid or expired refresh token")
	ErrUserGone            = NewError(KindUnauthorized, "user_gone", "User no longer exists")
	ErrUserNotFound        = NewError(KindNotFound, "user_not_found", "User not found")
	ErrUnauthorized        = NewError(KindUnauthorized, "unauthorized", "Could not validate credentials")
)

// Task errors
var (
	ErrInvalidTaskID = NewError(KindValidation, "invalid_task_id", "Invalid task ID")
	ErrTaskNotFound  = NewError(KindNotFound, "task_not_found", "Task not found")
)
