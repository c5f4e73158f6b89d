// Package perrors provides structured error types for the gridplan placer.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the placement pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (design files, options)
//   - UNKNOWN_*: Named resources that cannot be resolved
//   - SITE_*: Site binding failures during constrained placement
//   - INTERNAL/OUT_OF_BOUNDS: Unexpected internal errors
//
// # Usage
//
//	err := perrors.New(perrors.ErrCodeUnknownSite, "no site named %q", loc)
//	if perrors.Is(err, perrors.ErrCodeUnknownSite) {
//	    // Handle resolution error
//	}
//
//	// Wrap existing errors
//	err := perrors.Wrap(perrors.ErrCodeInvalidDesign, origErr, "load %s", path)
package perrors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidDesign Code = "INVALID_DESIGN"

	// Resolution errors: a location constraint that cannot be satisfied
	// as written. Both abort a placement run.
	ErrCodeUnknownSite      Code = "UNKNOWN_SITE"
	ErrCodeSiteTypeMismatch Code = "SITE_TYPE_MISMATCH"

	// Conflict errors: a site already occupied by a different cell.
	ErrCodeSiteConflict Code = "SITE_CONFLICT"

	// Legality errors: a committed binding that fails the local
	// legality check.
	ErrCodeIllegalBinding Code = "ILLEGAL_BINDING"

	// Programming-error class: a bin coordinate outside the grid.
	ErrCodeOutOfBounds Code = "OUT_OF_BOUNDS"

	// The deliberate terminal outcome past the initial placement stage.
	ErrCodeNotImplemented Code = "NOT_IMPLEMENTED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err is one of the coded errors that aborts a
// placement run. The NOT_IMPLEMENTED outcome is deliberate and terminal
// but is not a fatal abort: the initial placement it follows completed.
func IsFatal(err error) bool {
	code := GetCode(err)
	return code != "" && code != ErrCodeNotImplemented
}
