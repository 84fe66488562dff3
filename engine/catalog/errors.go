package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog fetches.
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrMalformedResponse = errors.New("malformed response")
	ErrStaleResponse     = errors.New("stale response")
)

// HTTPError is a non-2xx, non-429 response.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Status, e.URL)
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(status int, url string) *HTTPError {
	return &HTTPError{Status: status, URL: url}
}

// ErrInvalidFilter marks a filter value that can never match a car.
var ErrInvalidFilter = errors.New("invalid filter")

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
