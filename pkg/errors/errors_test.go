package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"room not found", NotFoundWithID("Room", "42"), CodeNotFound, http.StatusNotFound},
		{"bad request", InvalidInput("end_date must be after start_date"), CodeInvalidInput, http.StatusBadRequest},
		{"missing token", Unauthorized("missing bearer token"), CodeUnauthorized, http.StatusUnauthorized},
		{"other requester", Forbidden("request_id belongs to another requester"), CodeForbidden, http.StatusForbidden},
		{"holder transition", InvalidState("hold released", http.StatusUnprocessableEntity), CodeInvalidState, http.StatusUnprocessableEntity},
		{"booking cancel", InvalidState("not confirmed", http.StatusConflict), CodeInvalidState, http.StatusConflict},
		{"overlap", DateConflict("room taken"), CodeDateConflict, http.StatusConflict},
		{"auto-select", NoAvailableRoom("no rooms", cause), CodeNoAvailableRoom, http.StatusConflict},
		{"holder unreachable", RemoteFailure("hold failed", cause), CodeRemoteFailure, http.StatusBadGateway},
		{"rate limited", TooManyRequests("slow down"), CodeTooManyRequests, http.StatusTooManyRequests},
		{"request deadline", Timeout("request timed out"), CodeTimeout, http.StatusGatewayTimeout},
		{"store failure", Internal("Failed to hold room", cause), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "holder verdict",
			appErr:   DateConflict("room 7 is held for these dates"),
			expected: "DATE_CONFLICT: room 7 is held for these dates",
		},
		{
			name:     "with cause",
			appErr:   RemoteFailure("reservations service hold failed", errors.New("503")),
			expected: "REMOTE_FAILURE: reservations service hold failed (caused by: 503)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRemoteFailure_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := RemoteFailure("release failed", cause)

	if !errors.Is(err, cause) {
		t.Errorf("RemoteFailure should unwrap to its cause")
	}
}

func TestDateConflict_WithDetails(t *testing.T) {
	err := DateConflict("room taken").WithDetails(map[string]any{
		"room_id":             int64(7),
		"conflict_request_id": "req-1",
	})

	if err.Details["conflict_request_id"] != "req-1" {
		t.Errorf("expected conflict_request_id 'req-1', got %v", err.Details["conflict_request_id"])
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "65f0c2")

	if err.Message != "Booking not found" {
		t.Errorf("expected message 'Booking not found', got %s", err.Message)
	}
	if err.Details["id"] != "65f0c2" || err.Details["resource"] != "Booking" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestHasCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("hold: %w", DateConflict("room taken"))

	if !HasCode(err, CodeDateConflict) {
		t.Errorf("HasCode() should see through fmt wrapping")
	}
	if HasCode(err, CodeNotFound) {
		t.Errorf("HasCode() should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeDateConflict) {
		t.Errorf("HasCode() should be false for non-AppError")
	}
	if !IsAppError(err) {
		t.Errorf("IsAppError() should see through fmt wrapping")
	}
}

func TestAsAppError(t *testing.T) {
	if got := AsAppError(fmt.Errorf("confirm: %w", InvalidState("hold released", http.StatusUnprocessableEntity))); got.Code != CodeInvalidState {
		t.Errorf("AsAppError() should unwrap to the inner AppError, got %s", got.Code)
	}

	plain := errors.New("mongo: no reachable servers")
	got := AsAppError(plain)
	if got.Code != CodeInternal || got.Err != plain {
		t.Errorf("AsAppError() should wrap a plain error as internal, got %+v", got)
	}
}
