package validator

import (
	"errors"
	"io"
	"testing"
	"time"

	"staybook/pkg/logger"
	"staybook/pkg/model"
)

func newValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"}))
}

func roomID(id int64) *int64 { return &id }

func TestValidateInput(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	valid := func() model.CreateBookingInput {
		return model.CreateBookingInput{
			RequestID:   "req-1",
			RequesterID: "user-1",
			RoomID:      roomID(3),
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 2),
		}
	}

	tests := []struct {
		name      string
		mutate    func(in *model.CreateBookingInput)
		wantField string
	}{
		{"valid", func(in *model.CreateBookingInput) {}, ""},
		{"same day", func(in *model.CreateBookingInput) { in.EndDate = in.StartDate }, ""},
		{"auto select without room", func(in *model.CreateBookingInput) { in.RoomID = nil; in.AutoSelect = true }, ""},
		{"missing request id", func(in *model.CreateBookingInput) { in.RequestID = "" }, "request_id"},
		{"missing requester", func(in *model.CreateBookingInput) { in.RequesterID = "" }, "requester_id"},
		{"end before start", func(in *model.CreateBookingInput) { in.EndDate = start.AddDate(0, 0, -1) }, "end_date"},
		{"zero room", func(in *model.CreateBookingInput) { in.RoomID = roomID(0) }, "room_id"},
		{"no room no auto select", func(in *model.CreateBookingInput) { in.RoomID = nil }, "room_id"},
		{"missing start", func(in *model.CreateBookingInput) { in.StartDate = time.Time{} }, "start_date"},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)

			err := v.ValidateInput(&in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.wantField, errs)
			}
		})
	}
}
