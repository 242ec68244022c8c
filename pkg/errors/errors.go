// Package errors provides the error taxonomy shared by the import pipeline.
// Typed errors let callers decide between skipping an adapter for the rest of
// a run (auth failures) and recording a run error and moving on (everything
// else).
package errors

import (
	"errors"
	"fmt"
)

// New is an alias for the standard library errors.New for convenience.
var New = errors.New

var (
	// ErrProviderUnavailable indicates a provider returned a non-success
	// status or the transport failed. Recoverable: logged as a run error,
	// processing continues.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrAuthFailed indicates credentials are missing or were rejected.
	// Fatal for that adapter's remaining calls in the run.
	ErrAuthFailed = errors.New("provider auth failed")

	// ErrIncomplete indicates normalization could not resolve a single
	// field; the record proceeds with that field omitted.
	ErrIncomplete = errors.New("normalization incomplete")

	// ErrRunInProgress is returned when an import is requested while
	// another run holds the single-flight guard.
	ErrRunInProgress = errors.New("import run already in progress")

	// ErrNotFound indicates a requested catalog row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a caller-supplied argument was invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// ProviderError is a failure from an external provider API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Endpoint   string
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: %s: status %d", e.Provider, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Endpoint, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is maps HTTP status classes onto the sentinel taxonomy so callers can use
// errors.Is without inspecting status codes themselves.
func (e *ProviderError) Is(target error) bool {
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return target == ErrAuthFailed
	}
	return target == ErrProviderUnavailable
}

// NewProviderError creates a ProviderError for a non-success HTTP status.
func NewProviderError(provider, endpoint string, statusCode int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Endpoint: endpoint, StatusCode: statusCode, Err: err}
}

// FieldError marks a single normalization field that could not be resolved.
// The record itself remains usable.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Is implements errors.Is support.
func (e *FieldError) Is(target error) bool {
	return target == ErrIncomplete
}

// ConfigError is a fatal configuration problem detected at startup,
// before any scheduled run.
type ConfigError struct {
	Component string
	Message   string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("config: %s: %s", e.Component, e.Message)
	}
	return "config: " + e.Message
}

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string) *ConfigError {
	return &ConfigError{Component: component, Message: message}
}
