// Package common holds the error taxonomy shared by every layer of the
// calculator service.
package common

import (
	"errors"
	"strings"
)

// Application errors. Handlers map them to HTTP status codes.
var (
	// ErrNotFound means the requested resource or product type has no match.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint would be violated.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials is returned for both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated means the auth token is missing, malformed or expired.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the caller is authenticated but lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrUpstream wraps failures of external dependencies such as the mail relay.
	ErrUpstream = errors.New("upstream dependency failed")
)

// FieldError describes a single failed validation rule.
type FieldError struct {
	// Field is the JSON name of the offending input.
	Field string `json:"field,omitempty"`
	// Msg is a human readable description of the rule.
	Msg string `json:"msg"`
}

// ValidationError collects every failed rule of a request.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns a validation error holding the given fields.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Add appends a failed rule.
func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Msg: msg})
}

// Merge appends all failed rules of other.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	e.Fields = append(e.Fields, other.Fields...)
}

// Err returns e as an error, or nil when no rule failed.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation reports whether err is a *ValidationError and returns it.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
