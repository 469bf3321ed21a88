package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestWithSaga(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: INFO, Format: JSON, Output: &buf, Service: "bookings"})

	log.WithSaga("req-1", "corr-1").With(KeyBookingID, "b-1").Info("Booking confirmed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	want := map[string]string{
		KeyService:       "bookings",
		KeyRequestID:     "req-1",
		KeyCorrelationID: "corr-1",
		KeyBookingID:     "b-1",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s = %v, want %s", k, line[k], v)
		}
	}
}

func TestWithSaga_DoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf})

	_ = log.WithSaga("req-1", "corr-1")
	log.Info("Reconciler started")

	if bytes.Contains(buf.Bytes(), []byte(KeyRequestID)) {
		t.Errorf("parent logger picked up saga attributes: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{DEBUG, slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{ERROR, slog.LevelError},
		{EMPTY, slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: TEXT, Output: &buf}).Info("Room held", KeyRoomID, 7)

	if !bytes.Contains(buf.Bytes(), []byte("room_id=7")) {
		t.Errorf("unexpected text output: %s", buf.String())
	}
}
