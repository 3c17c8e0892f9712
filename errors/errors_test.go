package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
}

func TestAppError_NotFound_Details(t *testing.T) {
	err := NotFound("db", "ONE")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", err.Code)
	}
	if err.Details["token"] != "db" {
		t.Errorf("expected token=db, got %v", err.Details["token"])
	}
	if err.Details["requirement"] != "ONE" {
		t.Errorf("expected requirement=ONE, got %v", err.Details["requirement"])
	}
	if !strings.Contains(err.Error(), "no injectable registered for db") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAppError_AmbiguousMatch_Details(t *testing.T) {
	err := AmbiguousMatch("storage", "ONE_OR_NONE", 3)
	if err.Code != ErrCodeAmbiguousMatch {
		t.Errorf("expected AMBIGUOUS_MATCH, got %s", err.Code)
	}
	if err.Details["matches"] != 3 {
		t.Errorf("expected matches=3, got %v", err.Details["matches"])
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d", err.HTTPStatus)
	}
}

func TestAppError_CircularDependency_Message(t *testing.T) {
	err := CircularDependency([]string{"A", "B", "A"})
	if !strings.Contains(err.Message, "A -> B -> A") {
		t.Errorf("expected cycle in message, got %q", err.Message)
	}
	path, ok := err.Details["cycle"].([]string)
	if !ok || len(path) != 3 {
		t.Errorf("expected cycle detail with 3 entries, got %v", err.Details["cycle"])
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	root := fmt.Errorf("root cause")
	err := Internal(root)
	if !stderrors.Is(err, root) {
		t.Error("expected errors.Is to find the root cause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad").WithDetails(map[string]any{"a": 1})
	err.WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{Code: ErrCodeInternal}
	err.WithDetail("k", "v")
	if err.Details["k"] != "v" {
		t.Errorf("expected k=v, got %v", err.Details)
	}
}

func TestAppError_Unauthorized_DefaultMessage(t *testing.T) {
	err := Unauthorized("")
	if err.Message != "Authentication required." {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", err.HTTPStatus)
	}
}

func TestHTTPStatusForCode_Table(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAmbiguousMatch, http.StatusConflict},
		{ErrCodeCircularDependency, http.StatusConflict},
		{ErrCodeTypeMismatch, http.StatusUnprocessableEntity},
		{ErrCodeInvalidDeclaration, http.StatusUnprocessableEntity},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := HTTPStatusForCode(tc.code); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	inner := NotFound("b", "ONE")
	outer := InvalidDeclaration("a", "bad dependency").WithCause(inner)
	wrapped := fmt.Errorf("context: %w", outer)

	if !HasCode(wrapped, ErrCodeInvalidDeclaration) {
		t.Error("expected outer code to match")
	}
	if !HasCode(wrapped, ErrCodeNotFound) {
		t.Error("expected nested cause code to match")
	}
	if HasCode(wrapped, ErrCodeAmbiguousMatch) {
		t.Error("did not expect AMBIGUOUS_MATCH")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeNotFound) {
		t.Error("plain errors carry no code")
	}
	if HasCode(nil, ErrCodeNotFound) {
		t.Error("nil carries no code")
	}
}

func TestAppError_ToResponse_Success(t *testing.T) {
	err := NotFound("db", "ONE")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.Message != err.Message {
		t.Errorf("expected message to carry over, got %q", resp.Error.Message)
	}
	if resp.Error.Details["token"] != "db" {
		t.Errorf("expected details to carry over, got %v", resp.Error.Details)
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	wrapped := fmt.Errorf("wrapped: %w", TypeMismatch("x", "string", "int"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed")
	}
	if appErr.Code != ErrCodeTypeMismatch {
		t.Errorf("expected TYPE_MISMATCH, got %s", appErr.Code)
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error is not an AppError")
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var err error = New(ErrCodeInternal, "x")
	if err.Error() != "INTERNAL_ERROR: x" {
		t.Errorf("unexpected format %q", err.Error())
	}
}

func TestHasCode_JoinedErrors(t *testing.T) {
	joined := stderrors.Join(
		CircularDependency([]string{"A", "B", "A"}),
		NotFound("x", "ONE"),
	)
	if !HasCode(joined, ErrCodeNotFound) {
		t.Error("expected NOT_FOUND in the second joined error")
	}
	if !HasCode(joined, ErrCodeCircularDependency) {
		t.Error("expected CIRCULAR_DEPENDENCY in the first joined error")
	}
}
