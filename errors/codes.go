package errors

import "net/http"

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resolution errors
const (
	// ErrCodeNotFound indicates no injectable is registered for a token whose
	// requirement demands at least one.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAmbiguousMatch indicates more than one injectable is registered
	// for a token whose requirement demands exactly one.
	ErrCodeAmbiguousMatch ErrorCode = "AMBIGUOUS_MATCH"
	// ErrCodeCircularDependency indicates a construction depends on itself.
	ErrCodeCircularDependency ErrorCode = "CIRCULAR_DEPENDENCY"
	// ErrCodeTypeMismatch indicates a resolved value cannot be used where it was requested.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Declaration errors
const (
	// ErrCodeInvalidDeclaration indicates a malformed class or dependency declaration.
	ErrCodeInvalidDeclaration ErrorCode = "INVALID_DECLARATION"
	// ErrCodeInvalidInput indicates invalid configuration or request input.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Access and internal errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var httpStatusByCode = map[ErrorCode]int{
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeAmbiguousMatch:     http.StatusConflict,
	ErrCodeCircularDependency: http.StatusConflict,
	ErrCodeTypeMismatch:       http.StatusUnprocessableEntity,
	ErrCodeInvalidDeclaration: http.StatusUnprocessableEntity,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// HTTPStatusForCode returns the HTTP status used when an error with the given
// code is reported over the introspection API.
func HTTPStatusForCode(code ErrorCode) int {
	if s, ok := httpStatusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
