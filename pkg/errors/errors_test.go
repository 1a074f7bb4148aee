package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(cause, ErrCodeInternal, "commit failed", http.StatusInternalServerError)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() = false, want cause reachable via Unwrap")
	}
	if err.Error() == "" {
		t.Error("Error() is empty")
	}
}

func TestGetAppError_FindsWrappedError(t *testing.T) {
	app := NewNotFoundError("room")
	wrapped := fmt.Errorf("handling request: %w", app)

	got := GetAppError(wrapped)
	if got == nil {
		t.Fatal("GetAppError() = nil, want AppError")
	}
	if got.Code != ErrCodeNotFound || got.HTTPStatus != http.StatusNotFound {
		t.Errorf("got code=%s status=%d", got.Code, got.HTTPStatus)
	}

	if GetAppError(errors.New("plain")) != nil {
		t.Error("GetAppError(plain) != nil")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   ErrorCode
		status int
	}{
		{NewInvalidInputError("bad"), ErrCodeInvalidInput, http.StatusBadRequest},
		{NewUnauthorizedError("no token"), ErrCodeUnauthorized, http.StatusUnauthorized},
		{NewForbiddenError("nope"), ErrCodeForbidden, http.StatusForbidden},
		{NewUnprocessableError("bad sdp"), ErrCodeUnprocessable, http.StatusUnprocessableEntity},
		{NewRateLimitError(), ErrCodeRateLimit, http.StatusTooManyRequests},
		{NewInternalError("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if tt.err.Code != tt.code || tt.err.HTTPStatus != tt.status {
			t.Errorf("%s: code=%s status=%d, want %s/%d", tt.err.Message, tt.err.Code, tt.err.HTTPStatus, tt.code, tt.status)
		}
	}
}

func TestWithContext(t *testing.T) {
	err := NewInvalidInputError("bad").WithContext("field", "room_id")
	if err.Context["field"] != "room_id" {
		t.Errorf("Context = %v", err.Context)
	}
}
