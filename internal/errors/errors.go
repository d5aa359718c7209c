package errors

import (
	"errors"
	"fmt"
)

// Code categorizes an error for callers that need to branch on kind
// rather than message.
type Code string

const (
	// CodeUnknown indicates an uncategorized error
	CodeUnknown Code = "unknown"

	// CodeInvalidArgument indicates the caller supplied a malformed argument
	CodeInvalidArgument Code = "invalid_argument"

	// CodeNotFound indicates a campaign or player-in-list lookup failed
	CodeNotFound Code = "not_found"

	// CodeForbidden indicates the actor lacks authority for the operation
	CodeForbidden Code = "forbidden"

	// CodeInvalidState indicates the player is not in the expected source
	// list for the requested transition
	CodeInvalidState Code = "invalid_state"

	// CodeValidation indicates input failed a business validation rule
	CodeValidation Code = "validation"

	// CodeStore indicates the backing store is unavailable or returned an
	// unexpected shape
	CodeStore Code = "store"
)

// Error is an application error carrying a code, an optional cause and
// structured metadata for callers to render actionable messages from.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Meta    map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta attaches a metadata key to the error (builder pattern).
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context, preserving the code and
// metadata of an already-categorized cause.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
			Meta:    copyMeta(appErr.Meta),
		}
	}

	return &Error{Code: CodeUnknown, Message: message, Cause: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error and overrides its code.
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, message)
	wrapped.Code = code
	return wrapped
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a formatted not found error.
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

// InvalidArgumentf creates a formatted invalid argument error.
func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

// Forbiddenf creates a formatted forbidden error.
func Forbiddenf(format string, args ...any) *Error {
	return Newf(CodeForbidden, format, args...)
}

// InvalidState creates an invalid state error. These are expected and
// routine (a user double-clicking "join") and should not be logged as
// exceptional.
func InvalidState(message string) *Error {
	return New(CodeInvalidState, message)
}

// InvalidStatef creates a formatted invalid state error.
func InvalidStatef(format string, args ...any) *Error {
	return Newf(CodeInvalidState, format, args...)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a formatted validation error.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// Store creates a store error.
func Store(message string) *Error {
	return New(CodeStore, message)
}

// Is checks whether the error carries the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks whether the error is a not found error.
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsForbidden checks whether the error is a forbidden error.
func IsForbidden(err error) bool {
	return Is(err, CodeForbidden)
}

// IsInvalidState checks whether the error is an invalid state error.
func IsInvalidState(err error) bool {
	return Is(err, CodeInvalidState)
}

// IsValidation checks whether the error is a validation error.
func IsValidation(err error) bool {
	return Is(err, CodeValidation)
}

// IsStore checks whether the error is a store error.
func IsStore(err error) bool {
	return Is(err, CodeStore)
}

// GetCode returns the error's code, or CodeUnknown for foreign errors.
func GetCode(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMeta returns the error's metadata, if any.
func GetMeta(err error) map[string]any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Meta
	}
	return nil
}

func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}
