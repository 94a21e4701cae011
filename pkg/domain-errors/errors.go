// Package domainerrors defines the error codes shared by services and transport.
//
// Services return errors that carry a Code; the HTTP layer maps the code to a
// status and a stable wire identifier. Infrastructure facts (missing rows,
// unavailable backends) live in pkg/platform/sentinel and are translated into
// coded errors at the service boundary.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is the stable, client-visible identifier of an error class.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInsufficientFunds  Code = "insufficient_funds"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeRateLimited        Code = "rate_limited"
	CodeInternal           Code = "internal_error"
)

// Coded is implemented by any error that knows its Code. Domain packages can
// declare their own error types and still be classified here.
type Coded interface {
	ErrorCode() Code
}

// Error is the generic coded error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) ErrorCode() Code { return e.Code }

// Is matches another *Error with the same code and message, so tests can
// assert on New(code, msg) directly.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost coded error in err's chain.
// Uncoded errors are internal.
func CodeOf(err error) Code {
	var c Coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return CodeInternal
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// Is reports whether err is classified under code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Message returns the client-safe description of err. Generic coded errors
// expose only their own message, never the wrapped cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps a code onto its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInsufficientFunds, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
