// Package result provides the uniform accepted/rejected outcome type returned
// by every core service operation. A Result either carries an instance or a
// non-empty, ordered list of coded errors, never both.
package result

import (
	"fmt"
	"net/http"
)

// Kind classifies an error for programmatic handling and HTTP mapping.
type Kind int

const (
	// Unprocessable covers input shape and business rule violations the
	// caller can fix by correcting the input.
	Unprocessable Kind = iota
	// Conflict covers state-dependent violations such as duplicate names or
	// existing linkage.
	Conflict
	// NotFound means a referenced identity does not resolve.
	NotFound
	// SystemError covers unexpected backing-store failures.
	SystemError
)

func (k Kind) String() string {
	switch k {
	case Unprocessable:
		return "unprocessable"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	default:
		return "system_error"
	}
}

// HTTPStatus maps the kind to the status code boundary adapters respond with.
func (k Kind) HTTPStatus() int {
	switch k {
	case Unprocessable:
		return http.StatusUnprocessableEntity
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a single validation failure. Codes are stable strings of the form
// <3-letter-prefix>-<4-digit> (e.g. AUD-0005) that clients branch on.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
}

func (e Error) Error() string { return e.Code + ": " + e.Message }

// Errorf builds an Error with a formatted message.
func Errorf(kind Kind, code, format string, args ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, args...), Kind: kind}
}

// Result is the tagged outcome of an operation. The zero value is an accepted
// Result carrying T's zero value; construct through Accept or Reject.
type Result[T any] struct {
	instance T
	errors   []Error
}

// Accept returns an accepted Result carrying instance.
func Accept[T any](instance T) Result[T] {
	return Result[T]{instance: instance}
}

// Reject returns a rejected Result carrying the given errors, in order.
// At least one error must be provided.
func Reject[T any](errs ...Error) Result[T] {
	if len(errs) == 0 {
		panic("result: rejected with no errors")
	}
	return Result[T]{errors: errs}
}

// Accepted reports whether the operation succeeded.
func (r Result[T]) Accepted() bool { return len(r.errors) == 0 }

// Rejected reports whether the operation failed.
func (r Result[T]) Rejected() bool { return len(r.errors) > 0 }

// Instance returns the accepted instance. Meaningful only when Accepted.
func (r Result[T]) Instance() T { return r.instance }

// Errors returns every violation found, in registration order.
func (r Result[T]) Errors() []Error { return r.errors }

// Err returns the first error for callers that want a plain error, or nil
// when the Result is accepted.
func (r Result[T]) Err() error {
	if len(r.errors) == 0 {
		return nil
	}
	return r.errors[0]
}

// Status returns the HTTP status derived from the first error's kind, or
// 200 when accepted.
func (r Result[T]) Status() int {
	if len(r.errors) == 0 {
		return http.StatusOK
	}
	return r.errors[0].Kind.HTTPStatus()
}
