// Package errors provides structured error types for codexrender.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the pipeline
//   - Machine-readable error codes for programmatic handling
//   - Mapping of codes to HTTP status codes
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The render taxonomy has four pipeline codes:
//   - ENTRY_NOT_FOUND: the requested entry id has no record
//   - INVALID_CONFIGURATION: unsupported template or non-positive dimensions
//   - ENCODING_FAILURE: the composed surface could not be serialized
//   - SINK_FAILURE: the output sink could not persist the bytes
//
// The remaining codes cover the surrounding surfaces (store, HTTP input).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEntryNotFound, "entry %q not found", id)
//	if errors.Is(err, errors.ErrCodeEntryNotFound) {
//	    // respond 404
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSinkFailure, origErr, "store %s", name)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Render pipeline errors
	ErrCodeEntryNotFound        Code = "ENTRY_NOT_FOUND"
	ErrCodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	ErrCodeEncodingFailure      Code = "ENCODING_FAILURE"
	ErrCodeSinkFailure          Code = "SINK_FAILURE"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidID    Code = "INVALID_ID"
	ErrCodeInvalidName  Code = "INVALID_NAME"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeStoreFailure Code = "STORE_FAILURE"

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

// HTTPStatus maps an error to the status code the API responds with.
// Encoding and sink failures are deliberately indistinguishable from
// any other server-side failure.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeEntryNotFound, ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidConfiguration, ErrCodeInvalidInput, ErrCodeInvalidID, ErrCodeInvalidName:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
