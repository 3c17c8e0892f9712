package di

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/kbukum/injector/errors"
)

// CycleError is the cause carried by CIRCULAR_DEPENDENCY errors. Path starts
// and ends with the repeated token.
type CycleError struct {
	Path []Token
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(tokenNames(e.Path), " -> ")
}

func newCircularError(path []Token) *apperrors.AppError {
	return apperrors.CircularDependency(tokenNames(path)).WithCause(&CycleError{Path: path})
}

// ValidationError collects every problem found by Container.Validate.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("container validation failed with %d problem(s): %s",
		len(e.Problems), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error { return e.Problems }

// IsNotFound reports whether err is a NOT_FOUND resolution error.
func IsNotFound(err error) bool { return apperrors.HasCode(err, apperrors.ErrCodeNotFound) }

// IsAmbiguous reports whether err is an AMBIGUOUS_MATCH resolution error.
func IsAmbiguous(err error) bool { return apperrors.HasCode(err, apperrors.ErrCodeAmbiguousMatch) }

// IsCircular reports whether err is a CIRCULAR_DEPENDENCY resolution error.
func IsCircular(err error) bool { return apperrors.HasCode(err, apperrors.ErrCodeCircularDependency) }

// IsTypeMismatch reports whether err is a TYPE_MISMATCH error.
func IsTypeMismatch(err error) bool { return apperrors.HasCode(err, apperrors.ErrCodeTypeMismatch) }

// CyclePath returns the token path of a circular dependency error, or nil.
func CyclePath(err error) []Token {
	var cycle *CycleError
	if errors.As(err, &cycle) {
		return cycle.Path
	}
	return nil
}
