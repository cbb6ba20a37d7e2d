// Package apperrors defines the structured error types of fibdrv and maps
// failures to process exit codes. Engine and device errors stay sentinel
// values in their own packages; this package classifies them at the edge.
//
// Every type here that carries a cause implements Unwrap, so errors.Is
// still sees the sentinels underneath.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess       = 0
	ExitErrorGeneric  = 1
	ExitErrorTimeout  = 2
	ExitErrorMismatch = 3   // calculators disagree
	ExitErrorConfig   = 4   // bad flags, file or environment
	ExitErrorResource = 5   // result exceeds the word limit
	ExitErrorCanceled = 130 // SIGINT, as a shell reports it
)

// ConfigError is a user configuration mistake. main prints it without a
// stack of context and exits with ExitErrorConfig.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError formats a ConfigError.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError is a failed computation of F(N). Method names the
// calculator or device method that failed and may be empty.
type CalculationError struct {
	Method string
	N      uint64
	Cause  error
}

func (e CalculationError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("F(%d): %v", e.N, e.Cause)
	}
	return fmt.Sprintf("%s F(%d): %v", e.Method, e.N, e.Cause)
}

func (e CalculationError) Unwrap() error { return e.Cause }

// NewCalculationError wraps cause, or returns nil when cause is nil.
func NewCalculationError(method string, n uint64, cause error) error {
	if cause == nil {
		return nil
	}
	return CalculationError{Method: method, N: n, Cause: cause}
}

// ServerError is a failure to start or stop the HTTP server.
type ServerError struct {
	Message string
	Cause   error
}

func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a ServerError. cause may be nil.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// ValidationError rejects one input value. Reason is usually a sentinel
// of the package that owns the rule, such as service.ErrMaxValueExceeded.
type ValidationError struct {
	Field  string
	Value  any
	Reason error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Reason)
}

func (e ValidationError) Unwrap() error { return e.Reason }

// NewValidationError creates a ValidationError for field.
//
// Parameters:
//   - field: The rejected input, as the caller named it (e.g., "n").
//   - value: The rejected value.
//   - reason: Why it was rejected. It stays visible to errors.Is.
//
// Returns:
//   - error: A ValidationError.
func NewValidationError(field string, value any, reason error) error {
	return ValidationError{Field: field, Value: value, Reason: reason}
}

// WrapError prefixes err with a formatted context, keeping it visible to
// errors.Is and errors.As. It returns nil when err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err ends in a cancellation or an expired
// deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
