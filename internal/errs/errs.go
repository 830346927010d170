// Package errs defines the error taxonomy shared by handlers and services:
// validation failures are rejected immediately, lookups distinguish "not
// found" from upstream failures, and external-service errors carry the
// service name so batch results can annotate which unit failed.
package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a lookup for an unknown job/application/run id.
var ErrNotFound = errors.New("not found")

// ValidationError is a malformed request parameter. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ExternalServiceError wraps a failure from an adapter, the rubric evaluator
// or the embedding provider after retries are exhausted.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func External(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsExternal(err error) bool {
	var ee *ExternalServiceError
	return errors.As(err, &ee)
}
