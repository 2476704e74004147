package models

import (
	"errors"
	"fmt"
	"time"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindConflict
	KindInvalidInput
	KindInvalidCredentials
	KindRateLimited
	KindNotFound
	KindForbidden
	KindPayloadTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid input"
	case KindInvalidCredentials:
		return "invalid credentials"
	case KindRateLimited:
		return "rate limited"
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindPayloadTooLarge:
		return "payload too large"
	default:
		return "internal"
	}
}

// Error is the error type every service returns for conditions the caller
// is expected to act on. Anything else is treated as KindInternal.
type Error struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration // only set for KindRateLimited
	Err        error
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

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ErrConflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func ErrInvalidInput(format string, args ...any) *Error {
	return newError(KindInvalidInput, format, args...)
}

func ErrInvalidCredentials() *Error {
	return newError(KindInvalidCredentials, "invalid username or password")
}

func ErrRateLimited(retryAfter time.Duration) *Error {
	minutes := int((retryAfter + time.Minute - 1) / time.Minute)
	e := newError(KindRateLimited, "too many failed login attempts, try again in %d minute(s)", minutes)
	e.RetryAfter = retryAfter
	return e
}

func ErrNotFound(what, id string) *Error {
	return newError(KindNotFound, "%s %q not found", what, id)
}

func ErrForbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func ErrPayloadTooLarge(limit int64) *Error {
	return newError(KindPayloadTooLarge, "file exceeds the %d byte limit", limit)
}

func ErrInternal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the kind of err, defaulting to KindInternal for errors
// that did not originate from this package.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
