// Package errors provides structured error types for stitchgraph.
//
// Every failure that callers need to tell apart carries a [Code]. The
// pattern graph, the walker and the layout engine report their failures
// with the graph codes below; the outer layers (parser, renderers, HTTP
// API, CLI) use the input and resource codes.
//
// # Error Codes
//
// Graph errors are raised at the point of detection and are never retried:
//   - NOT_FOUND_IN_CONTAINER: an instruction is not part of its row
//   - INVALID_CONNECTION_STATE: connecting meshes of the same polarity, or
//     a mesh that is already connected
//   - INDEX_OUT_OF_RANGE: a mesh or instruction index outside its bounds
//   - CYCLIC_DEPENDENCY: the knit order cannot be completed
//   - MALFORMED_PATTERN: the layout seed is missing or empty
//   - KEY_NOT_FOUND: a specification key is absent from the whole chain
//
// # Usage
//
//	_, err := row.ResolveConsumed(7)
//	if errors.Is(err, errors.ErrCodeIndexOutOfRange) {
//	    // Handle bad index
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "failed to read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Pattern graph errors
	ErrCodeNotFoundInContainer    Code = "NOT_FOUND_IN_CONTAINER"
	ErrCodeInvalidConnectionState Code = "INVALID_CONNECTION_STATE"
	ErrCodeIndexOutOfRange        Code = "INDEX_OUT_OF_RANGE"
	ErrCodeCyclicDependency       Code = "CYCLIC_DEPENDENCY"
	ErrCodeMalformedPattern       Code = "MALFORMED_PATTERN"
	ErrCodeKeyNotFound            Code = "KEY_NOT_FOUND"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidID     Code = "INVALID_ID"
	ErrCodeParse         Code = "PARSE_ERROR"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePatternNotFound Code = "PATTERN_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Output errors
	ErrCodeRender Code = "RENDER_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Is reports whether any *Error in the chain of err has the given code, so
// a PARSE_ERROR wrapping an INDEX_OUT_OF_RANGE matches both.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
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

// IsGraphError reports whether err carries one of the pattern graph codes.
// These indicate a structurally broken pattern rather than bad I/O.
func IsGraphError(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFoundInContainer, ErrCodeInvalidConnectionState,
		ErrCodeIndexOutOfRange, ErrCodeCyclicDependency,
		ErrCodeMalformedPattern, ErrCodeKeyNotFound:
		return true
	}
	return false
}
