// Package apperr defines the error-kind taxonomy shared by every layer of
// logserv. A kind maps to exactly one HTTP status at the boundary; callers
// deeper in the stack only need to pick a kind and a message.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for the purpose of choosing an HTTP status and a
// client-facing message. It is not a Go error type hierarchy — just a tag.
type Kind int

const (
	// Unexpected covers anything not explicitly classified below. Logged
	// with a stack trace server-side, surfaced to clients as a fixed
	// generic message.
	Unexpected Kind = iota
	// Validation covers malformed or out-of-bounds request parameters:
	// bad n, oversized search text or token, cont mixed with n/s,
	// malformed continuation tokens.
	Validation
	// NotFound covers missing files, directory traversal, wrong HTTP
	// method, and empty paths.
	NotFound
	// Secondary covers a single peer's failure inside the Aggregator. It
	// never reaches the HTTP boundary as a status code — the Aggregator
	// always catches it and demotes it to a messages[] entry.
	Secondary
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "ValidationError"
	case NotFound:
		return "NotFound"
	case Secondary:
		return "SecondaryError"
	default:
		return "Unexpected"
	}
}

// Error is the concrete error value carried between layers. Message is
// client-facing (for Validation and NotFound); Cause, when present, is
// logged but never sent to the client.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/As see through to Cause.
func (e *Error) Unwrap() error { return e.Cause }

// Validationf builds a Validation-kind error with a formatted message.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a NotFound-kind error with a formatted message.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Unexpected-kind error, attaching a stack trace to cause via
// github.com/pkg/errors so server-side logs can print it with %+v.
func Wrap(cause error, message string) *Error {
	return &Error{Kind: Unexpected, Message: message, Cause: errors.WithStack(cause)}
}

// Secondaryf builds a Secondary-kind error describing one peer's failure.
func Secondaryf(format string, args ...interface{}) *Error {
	return &Error{Kind: Secondary, Message: fmt.Sprintf(format, args...)}
}

// As extracts an *Error from err, classifying anything else as Unexpected.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, "internal error")
}
