package core

import "fmt"

// NotFoundError represents a resource that could not be found.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*NotFoundError)
	return ok
}

// TransientNetworkError wraps a network-level failure (timeout, connection
// reset, DNS) that the reliability layer should retry. Source names the
// adapter that raised it.
type TransientNetworkError struct {
	Source string
	Err    error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: transient network error: %v", e.Source, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

func NewTransientNetworkError(source string, err error) error {
	return &TransientNetworkError{Source: source, Err: err}
}

func IsTransientNetwork(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*TransientNetworkError)
	return ok
}

// ClientError represents a non-retryable 4xx response from an upstream source.
type ClientError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: client error (status %d)", e.Source, e.StatusCode)
}

func NewClientError(source string, statusCode int, body string) error {
	return &ClientError{Source: source, StatusCode: statusCode, Body: body}
}

func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ClientError)
	return ok
}

// BreakerOpenError is returned when a circuit breaker rejects a call without
// attempting it.
type BreakerOpenError struct {
	Source string
}

func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("%s: circuit breaker open", e.Source)
}

func NewBreakerOpenError(source string) error {
	return &BreakerOpenError{Source: source}
}

func IsBreakerOpen(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*BreakerOpenError)
	return ok
}

// ParseError represents a failure to parse a response body into the expected
// shape: malformed JSON, missing fields, unexpected HTML.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func NewParseError(source string, err error) error {
	return &ParseError{Source: source, Err: err}
}

func IsParseError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ParseError)
	return ok
}

// ValidationError represents a value that failed a domain invariant check,
// e.g. an odds record whose spreads don't sum to zero.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ValidationError)
	return ok
}

// DataUnavailableError signals that a non-critical source could not supply
// data for this run. Callers may proceed in degraded mode.
type DataUnavailableError struct {
	Source string
	Reason string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: data unavailable: %s", e.Source, e.Reason)
}

func NewDataUnavailableError(source, reason string) error {
	return &DataUnavailableError{Source: source, Reason: reason}
}

func IsDataUnavailable(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DataUnavailableError)
	return ok
}
