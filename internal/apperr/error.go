package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Code classifies failures surfaced by the render engine.
type Code string

const (
	CodeValidation         Code = "VALIDATION"
	CodeMissingCredential  Code = "MISSING_CREDENTIAL"
	CodeTransport          Code = "TRANSPORT"
	CodeParse              Code = "PARSE"
	CodeCancelled          Code = "CANCELLED"
	CodeAllEndpointsFailed Code = "ALL_ENDPOINTS_FAILED"
	CodePersistence        Code = "PERSISTENCE"
)

// Error is a structured error with a code, a short message and an optional cause.
type Error struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Endpoint string `json:"endpoint,omitempty"`
	Status   int    `json:"status,omitempty"`
	Cause    error  `json:"-"`
}

func (e *Error) Error() string {
	prefix := string(e.Code)
	if e.Endpoint != "" {
		prefix += " " + e.Endpoint
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so sentinels like ErrCancelled
// work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Code: CodeValidation}
	ErrMissingCredential  = &Error{Code: CodeMissingCredential}
	ErrTransport          = &Error{Code: CodeTransport}
	ErrParse              = &Error{Code: CodeParse}
	ErrCancelled          = &Error{Code: CodeCancelled}
	ErrAllEndpointsFailed = &Error{Code: CodeAllEndpointsFailed}
	ErrPersistence        = &Error{Code: CodePersistence}
)

func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func MissingCredential(provider string) *Error {
	return &Error{Code: CodeMissingCredential, Message: "no API key configured for " + provider}
}

func Transport(endpoint string, status int, message string, cause error) *Error {
	return &Error{Code: CodeTransport, Endpoint: endpoint, Status: status, Message: message, Cause: cause}
}

func Parse(endpoint, message string) *Error {
	return &Error{Code: CodeParse, Endpoint: endpoint, Message: message}
}

func Cancelled(cause error) *Error {
	return &Error{Code: CodeCancelled, Message: "generation cancelled", Cause: cause}
}

// AllEndpointsFailed wraps the last endpoint failure.
func AllEndpointsFailed(tried int, last error) *Error {
	return &Error{
		Code:    CodeAllEndpointsFailed,
		Message: fmt.Sprintf("all %d endpoint(s) failed", tried),
		Cause:   last,
	}
}

func Persistence(op string, cause error) *Error {
	return &Error{Code: CodePersistence, Message: op, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCancelled reports whether err represents a cancelled generation, including
// bare context cancellation.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == CodeCancelled || errors.Is(err, context.Canceled)
}
