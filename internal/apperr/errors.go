package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// TransportError is a network-level fetch failure (connect, timeout).
// Retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewTransport(err error) *TransportError {
	return &TransportError{Err: err}
}

// HTTPError is a non-2xx response from the upstream API. Retryable.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api request failed with status: %d", e.Status)
}

func NewHTTP(status int) *HTTPError {
	return &HTTPError{Status: status}
}

// APIError is an error payload reported inside a 2xx envelope.
// Terminal: the request reached the API and was rejected, retrying
// cannot help.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("mediastack api error [%s]: %s", e.Code, e.Message)
	}
	return "mediastack api error: " + e.Message
}

func NewAPI(code, msg string) *APIError {
	return &APIError{Code: code, Message: msg}
}

// ConflictError is a unique-constraint violation at persist time.
// Constraint carries the constraint name so callers can tell a duplicate
// URL from a slug collision.
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique constraint %q violated: %v", e.Constraint, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func NewConflict(constraint string, err error) *ConflictError {
	return &ConflictError{Constraint: constraint, Err: err}
}

// RegistryError is a malformed source or category reference. Never fatal:
// the registry degrades to a sentinel value and the error is only logged.
type RegistryError struct {
	Field string
	Value string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("malformed %s: %q", e.Field, e.Value)
}

func NewRegistry(field, value string) *RegistryError {
	return &RegistryError{Field: field, Value: value}
}

// Mediastack error codes that indicate the usage quota or rate limit was
// hit. Runs failing with these finalize as rate_limited.
const (
	CodeUsageLimitReached = "usage_limit_reached"
	CodeRateLimitReached  = "rate_limit_reached"
)

// IsRetryable reports whether a fetch attempt failure is worth retrying:
// transport failures and non-2xx statuses are, API envelope errors are not.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var he *HTTPError
	return errors.As(err, &he)
}

// IsRateLimited reports whether a fetch failure was caused by throttling,
// either HTTP 429 or a mediastack quota error code.
func IsRateLimited(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) && he.Status == http.StatusTooManyRequests {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code == CodeUsageLimitReached || ae.Code == CodeRateLimitReached
	}
	return false
}

// IsConflict reports whether err is a unique-constraint violation on the
// named constraint. An empty name matches any conflict.
func IsConflict(err error, constraint string) bool {
	var ce *ConflictError
	if !errors.As(err, &ce) {
		return false
	}
	return constraint == "" || ce.Constraint == constraint
}
