// Package errors provides structured error types for depstatus.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code]. Codes are grouped into a small set of categories that callers branch
// on when deciding how to present a failure:
//
//   - Validation: malformed name, path, or requirement, rejected before any I/O
//   - NotFound: manifest, package, or release absent upstream
//   - Transport: network or HTTP failure from an upstream interactor
//   - Decode: malformed manifest or malformed upstream payload
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPackage, "invalid package name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidPackage) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
//
//	switch errors.GetCategory(err) {
//	case errors.CategoryNotFound:
//	    // 404
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidPackage     Code = "INVALID_PACKAGE"
	ErrCodeInvalidVersion     Code = "INVALID_VERSION"
	ErrCodeInvalidRequirement Code = "INVALID_REQUIREMENT"
	ErrCodeInvalidRepository  Code = "INVALID_REPOSITORY"
	ErrCodeInvalidPath        Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork             Code = "NETWORK_ERROR"
	ErrCodeTimeout             Code = "TIMEOUT"
	ErrCodeRateLimited         Code = "RATE_LIMITED"
	ErrCodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"

	// Payload errors
	ErrCodeDecode Code = "DECODE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Category groups error codes by how a caller should react to them.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryTransport  Category = "transport"
	CategoryDecode     Category = "decode"
	CategoryInternal   Category = "internal"
)

// Category returns the category the code belongs to.
// Unknown codes are internal.
func (c Code) Category() Category {
	switch c {
	case ErrCodeInvalidInput, ErrCodeInvalidPackage, ErrCodeInvalidVersion,
		ErrCodeInvalidRequirement, ErrCodeInvalidRepository, ErrCodeInvalidPath:
		return CategoryValidation
	case ErrCodeNotFound, ErrCodePackageNotFound, ErrCodeFileNotFound:
		return CategoryNotFound
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeRateLimited, ErrCodeUpstreamUnavailable:
		return CategoryTransport
	case ErrCodeDecode:
		return CategoryDecode
	default:
		return CategoryInternal
	}
}

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

// Is reports whether any *Error in err's chain carries code, so a
// PACKAGE_NOT_FOUND stays visible after the engine wraps it.
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

// GetCategory returns the category of the outermost coded error in the chain.
// Context cancellation and deadlines count as transport failures; anything
// else without a code is internal.
func GetCategory(err error) Category {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code.Category()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransport
	}
	return CategoryInternal
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
