// Package errors provides domain-specific errors for docsmith.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrPersistFailed       = errors.New("cache entry could not be persisted")
	ErrComputeFailed       = errors.New("completion could not be computed")
	ErrNilCompletion       = errors.New("compute returned no completion")
	ErrModelRequired       = errors.New("model name required")
	ErrProviderUnreachable = errors.New("provider unreachable")
	ErrEmptyResponse       = errors.New("provider returned no choices")
	ErrUnsupportedLanguage = errors.New("programming language not supported")
	ErrTargetNotFound      = errors.New("target path not found")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeProvider      ErrorCode = "PROVIDER"
	CodeCache         ErrorCode = "CACHE"
	CodeConfiguration ErrorCode = "CONFIG"
)

// DocsmithError wraps errors with additional context for debugging and handling.
type DocsmithError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *DocsmithError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *DocsmithError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DocsmithError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *DocsmithError {
	return &DocsmithError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
func WithContext(err *DocsmithError, key string, value any) *DocsmithError {
	if err.Context == nil {
		err.Context = make(map[string]any)
	}
	err.Context[key] = value
	return err
}

// PersistError reports that a completion was computed but could not be
// written to the cache namespace. The completion itself is still valid.
type PersistError struct {
	Fingerprint string
	Cause       error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Fingerprint, e.Cause)
}

// Unwrap exposes both ErrPersistFailed and the underlying I/O error.
func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistFailed, e.Cause}
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// CodeOf returns the ErrorCode of the first DocsmithError in err's chain,
// or an empty code when there is none.
func CodeOf(err error) ErrorCode {
	var de *DocsmithError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
