package models

import "errors"

// Sentinel errors shared across stores and services. A DecodeError on a
// single record inside a batch read is swallowed by the store (the record
// is dropped from the result list); everything else propagates.
var (
	ErrNotFound = errors.New("record not found")
	ErrDecode   = errors.New("malformed record")
)

// AuthError covers sign-in and registration failures that should be shown
// to the user (bad credentials, duplicate email).
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// ValidationError carries per-field input problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	for k, v := range e.Fields {
		return k + ": " + v
	}
	return "validation failed"
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}
