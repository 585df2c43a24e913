package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrStopped is returned by Submit once the engine no longer accepts
	// events.
	ErrStopped = errors.New("engine stopped")

	// ErrUnknownSurface matches any *Error with CodeUnknownSurface.
	ErrUnknownSurface = errors.New("unknown surface")
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// CodeUnknownSurface indicates the surface id has no row in the store.
	CodeUnknownSurface ErrorCode = "UNKNOWN_SURFACE"

	// CodeUnknownItem indicates a drag start referenced an item the surface
	// does not hold.
	CodeUnknownItem ErrorCode = "UNKNOWN_ITEM"

	// CodeInvalidEvent indicates a structurally bad event (missing surface,
	// unknown type).
	CodeInvalidEvent ErrorCode = "INVALID_EVENT"

	// CodeLoadFailed indicates the surface could not be read or its
	// predicate could not be resolved.
	CodeLoadFailed ErrorCode = "LOAD_FAILED"

	// CodePersistFailed indicates a reorder was computed but could not be
	// written. The cached order is reloaded from the store.
	CodePersistFailed ErrorCode = "PERSIST_FAILED"
)

// Error is an engine failure tied to one surface.
type Error struct {
	Code    ErrorCode
	Surface string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Surface != "" {
		msg = fmt.Sprintf("%s (surface=%s)", msg, e.Surface)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnknownSurface) match by code.
func (e *Error) Is(target error) bool {
	return target == ErrUnknownSurface && e.Code == CodeUnknownSurface
}

// CodeOf returns the code of an *Error anywhere in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func newError(code ErrorCode, surface, message string, cause error) *Error {
	return &Error{Code: code, Surface: surface, Message: message, Err: cause}
}
