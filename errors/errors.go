package errors

import (
	"fmt"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// HTTPStatus is the status code used when the error crosses the HTTP boundary.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError, deriving the HTTP status from the code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: HTTPStatusForCode(code),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// --- Resolution error constructors ---

// NotFound reports that no injectable is registered for token.
func NotFound(token, requirement string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("no injectable registered for %s (requirement %s)", token, requirement)).
		WithDetails(map[string]any{"token": token, "requirement": requirement, "matches": 0})
}

// AmbiguousMatch reports that token has more registrations than requirement allows.
func AmbiguousMatch(token, requirement string, matches int) *AppError {
	return New(ErrCodeAmbiguousMatch, fmt.Sprintf("%d injectables registered for %s, requirement %s allows one", matches, token, requirement)).
		WithDetails(map[string]any{"token": token, "requirement": requirement, "matches": matches})
}

// CircularDependency reports a construction cycle. path lists the token names
// from the outermost construction to the repeated one.
func CircularDependency(path []string) *AppError {
	return New(ErrCodeCircularDependency, "circular dependency: "+strings.Join(path, " -> ")).
		WithDetail("cycle", path)
}

// TypeMismatch reports a resolved value that cannot be used as the wanted type.
func TypeMismatch(token string, got, want any) *AppError {
	return New(ErrCodeTypeMismatch, fmt.Sprintf("%s resolved to %v, expected %v", token, got, want)).
		WithDetails(map[string]any{"token": token, "got": fmt.Sprint(got), "want": fmt.Sprint(want)})
}

// InvalidDeclaration reports a malformed class or dependency declaration.
func InvalidDeclaration(subject, reason string) *AppError {
	return New(ErrCodeInvalidDeclaration, fmt.Sprintf("invalid declaration of %s: %s", subject, reason)).
		WithDetail("subject", subject)
}

// --- Boundary error constructors ---

// Validation creates an AppError for invalid input.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// Unauthorized creates an AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(ErrCodeUnauthorized, reason)
}

// Internal wraps an unexpected error.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
// Causes and joined errors are searched depth-first.
func HasCode(err error, code ErrorCode) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *AppError:
		return e.Code == code || HasCode(e.Cause, code)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return HasCode(e.Unwrap(), code)
	}
	return false
}
