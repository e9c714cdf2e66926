package olx

import (
	"errors"
	"fmt"
)

// ErrAuthRequired means no usable user token exists. The operator has to
// run the authorization flow again.
var ErrAuthRequired = errors.New("olx user authorization required")

// ValidationKind classifies a local precondition failure.
type ValidationKind string

const (
	ValidationInvalid  ValidationKind = "invalid"
	ValidationNotFound ValidationKind = "not_found"
	ValidationConflict ValidationKind = "conflict"
)

// ValidationError is a local precondition failure, raised before any
// marketplace call is made.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalidf builds an invalid-kind ValidationError.
func Invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: ValidationInvalid, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not_found-kind ValidationError.
func NotFoundf(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: ValidationNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict-kind ValidationError.
func Conflictf(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: ValidationConflict, Message: fmt.Sprintf(format, args...)}
}

// TransportError is a network failure, timeout or non-2xx answer from the
// marketplace. StatusCode is zero when no response arrived.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("olx %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("olx %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Rejected reports whether the marketplace answered with a 4xx.
func (e *TransportError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ResponseShapeError is a 2xx answer missing the fields we rely on.
type ResponseShapeError struct {
	Op      string
	Message string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("olx %s: unexpected response: %s", e.Op, e.Message)
}
