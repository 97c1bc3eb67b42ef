// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into ranges, and every range belongs to one of three
// categories that decide how callers react to a failure:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters and configuration
//   - Data errors (200-299): Duplicate timestamps, bad provider payloads, ambiguous source lookups
//   - Invariant errors (900-999): Negative balances, unreachable limit prices, unsupported intervals
//   - Operational errors (1000-1099): Lock and cache I/O failures, job timeouts
//
// Data and invariant errors are never swallowed: they abort the current replay or job.
// Operational errors are only retried at the lock-acquisition layer.
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeDuplicateIndex, "duplicate timestamp in column close")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeNotExactlyOneSource, "%d sources match %s/%s", n, symbol, field)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeCacheIO, "failed to write cache entry", originalErr)
//
//	// Check error code or category
//	if errors.HasCode(err, errors.ErrCodeNegativeBalance) { ... }
//	if errors.IsDataError(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the category of the error's code.
func (e *Error) Category() Category {
	return e.Code.Category()
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// HasCategory reports whether any *Error in err's chain belongs to the category.
func HasCategory(err error, category Category) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}

		if e.Code.Category() == category {
			return true
		}

		err = e.Cause
	}

	return false
}

// IsDataError reports whether err carries a data error anywhere in its chain.
func IsDataError(err error) bool {
	return HasCategory(err, CategoryData)
}

// IsInvariantError reports whether err carries an invariant violation anywhere in its chain.
func IsInvariantError(err error) bool {
	return HasCategory(err, CategoryInvariant)
}

// IsOperationalError reports whether err carries an operational failure anywhere in its chain.
func IsOperationalError(err error) bool {
	return HasCategory(err, CategoryOperational)
}
