package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"staybook/pkg/model"
	"staybook/pkg/retry"
)

const testCorrelationID = "5f0c7c8e-3a4b-4d55-9b1e-8e2f1a6d7c90"

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Output:  io.Discard,
		Service: "test",
	})
}

func testPolicy() retry.Policy {
	return retry.Policy{
		Timeout:     500 * time.Millisecond,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg, "code": code})
}

func heldLock(requestID string) model.ReservationLock {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	return model.ReservationLock{
		ID:        "lock-1",
		RequestID: requestID,
		RoomID:    7,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 2),
		Status:    model.LockHeld,
	}
}

func TestReservationClient_Hold_SendsCorrelationHeader(t *testing.T) {
	var gotHeader, gotPath string
	var gotBody model.HoldRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(HeaderCorrelationID)
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeData(w, http.StatusOK, heldLock(gotBody.RequestID))
	}))
	defer srv.Close()

	c := NewReservationClient(srv.URL, testPolicy(), metrics.New("test"), testLogger())
	lock, err := c.Hold(context.Background(), testCorrelationID, "req-1", 7, "2025-01-10", "2025-01-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotHeader != testCorrelationID {
		t.Errorf("expected correlation header %q, got %q", testCorrelationID, gotHeader)
	}
	if gotPath != "/api/v1/rooms/id/7/hold" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotBody.RequestID != "req-1" || gotBody.StartDate != "2025-01-10" || gotBody.EndDate != "2025-01-12" {
		t.Errorf("unexpected body %+v", gotBody)
	}
	if lock.Status != model.LockHeld {
		t.Errorf("expected HELD, got %s", lock.Status)
	}
}

func TestReservationClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeErr(w, http.StatusServiceUnavailable, apperrors.CodeUnavailable, "busy")
			return
		}
		lock := heldLock("req-1")
		lock.Status = model.LockConfirmed
		writeData(w, http.StatusOK, lock)
	}))
	defer srv.Close()

	c := NewReservationClient(srv.URL, testPolicy(), nil, testLogger())
	lock, err := c.Confirm(context.Background(), testCorrelationID, "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lock.Status != model.LockConfirmed {
		t.Errorf("expected CONFIRMED, got %s", lock.Status)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestReservationClient_PermanentAnswers(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		wantCode string
	}{
		{"date conflict", http.StatusConflict, apperrors.CodeDateConflict, apperrors.CodeDateConflict},
		{"not found", http.StatusNotFound, apperrors.CodeNotFound, apperrors.CodeNotFound},
		{"invalid state", http.StatusUnprocessableEntity, apperrors.CodeInvalidState, apperrors.CodeInvalidState},
		{"invalid input", http.StatusBadRequest, apperrors.CodeInvalidInput, apperrors.CodeInvalidInput},
		{"bare 409", http.StatusConflict, "", apperrors.CodeDateConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				writeErr(w, tt.status, tt.code, "rejected")
			}))
			defer srv.Close()

			c := NewReservationClient(srv.URL, testPolicy(), nil, testLogger())
			_, err := c.Hold(context.Background(), testCorrelationID, "req-1", 7, "2025-01-10", "2025-01-12")

			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected code %s, got %v", tt.wantCode, err)
			}
			if calls != 1 {
				t.Errorf("expected a single call, got %d", calls)
			}
		})
	}
}

func TestReservationClient_ExhaustedIsRemoteFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeErr(w, http.StatusInternalServerError, apperrors.CodeInternal, "boom")
	}))
	defer srv.Close()

	c := NewReservationClient(srv.URL, testPolicy(), nil, testLogger())
	_, err := c.Release(context.Background(), testCorrelationID, "req-1")

	if !apperrors.HasCode(err, apperrors.CodeRemoteFailure) {
		t.Fatalf("expected REMOTE_FAILURE, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected MaxAttempts calls, got %d", calls)
	}
}

func TestReservationClient_TimeoutIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
			return
		}
		writeData(w, http.StatusOK, heldLock("req-1"))
	}))
	defer srv.Close()

	policy := testPolicy()
	policy.Timeout = 50 * time.Millisecond
	c := NewReservationClient(srv.URL, policy, nil, testLogger())

	if _, err := c.Hold(context.Background(), testCorrelationID, "req-1", 7, "2025-01-10", "2025-01-12"); err != nil {
		t.Fatalf("expected second attempt to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestReservationClient_InvalidResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lock := heldLock("req-1")
		lock.Status = "UNKNOWN"
		writeData(w, http.StatusOK, lock)
	}))
	defer srv.Close()

	c := NewReservationClient(srv.URL, testPolicy(), nil, testLogger())
	_, err := c.Hold(context.Background(), testCorrelationID, "req-1", 7, "2025-01-10", "2025-01-12")

	if !apperrors.HasCode(err, apperrors.CodeRemoteFailure) {
		t.Errorf("expected REMOTE_FAILURE for malformed lock, got %v", err)
	}
}

func TestReservationClient_RecommendedRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/rooms/recommended" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeData(w, http.StatusOK, []model.RoomView{
			{ID: 2, Number: "102", TimesBooked: 1},
			{ID: 1, Number: "101", TimesBooked: 5},
		})
	}))
	defer srv.Close()

	c := NewReservationClient(srv.URL, testPolicy(), nil, testLogger())
	rooms, err := c.RecommendedRooms(context.Background(), testCorrelationID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != 2 {
		t.Errorf("unexpected rooms %+v", rooms)
	}
}

func TestReservationClient_RecommendedRooms_InvalidRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, []model.RoomView{{ID: 0, TimesBooked: 1}})
	}))
	defer srv.Close()

	c := NewReservationClient(srv.URL, testPolicy(), nil, testLogger())
	if _, err := c.RecommendedRooms(context.Background(), testCorrelationID); err == nil {
		t.Error("expected room without id to be rejected")
	}
}
