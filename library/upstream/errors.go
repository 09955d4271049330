package upstream

import (
	"fmt"

	errors "github.com/Laisky/errors/v2"
)

// Kind identifies a machine-stable upstream failure category.
type Kind string

const (
	KindNetwork      Kind = "network_failure"
	KindNotFound     Kind = "not_found"
	KindAuthRequired Kind = "authentication_required"
	KindAuthExpired  Kind = "authentication_expired"
	KindMalformed    Kind = "malformed_upstream_response"
	KindHTTP         Kind = "http_error"
	KindValidation   Kind = "validation_error"
)

// Error captures a typed failure detected while talking to an upstream.
type Error struct {
	Kind       Kind
	Message    string
	URL        string
	StatusCode int
	Reason     string
	Preview    string
	Err        error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e == nil {
		return "upstream error: <nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("upstream error: %s", e.Kind)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError constructs a typed upstream error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validationf constructs a validation error raised before any network call.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// AuthFailure returns the expired or required variant depending on whether
// a credential was supplied with the request.
func AuthFailure(credentialSupplied bool, url string, status int) *Error {
	if credentialSupplied {
		return &Error{Kind: KindAuthExpired, Message: "authentication expired", URL: url, StatusCode: status}
	}
	return &Error{Kind: KindAuthRequired, Message: "authentication required", URL: url, StatusCode: status}
}

// AsError extracts a typed upstream error from the error chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// IsKind reports whether the error chain contains an upstream error of kind.
func IsKind(err error, kind Kind) bool {
	if typed, ok := AsError(err); ok {
		return typed.Kind == kind
	}
	return false
}
