package model

import (
	"time"
)

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

type Booking struct {
	ID                  string    `json:"id,omitempty" bson:"_id,omitempty"`
	RequestID           string    `json:"request_id" bson:"request_id" validate:"required,max=128"`
	RequesterID         string    `json:"requester_id" bson:"requester_id" validate:"required"`
	RoomID              int64     `json:"room_id" bson:"room_id" validate:"required,gt=0"`
	StartDate           time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate             time.Time `json:"end_date" bson:"end_date" validate:"required,gtefield=StartDate"`
	Status              string    `json:"status" bson:"status" validate:"required,oneof=PENDING CONFIRMED CANCELLED"`
	CorrelationID       string    `json:"correlation_id" bson:"correlation_id" validate:"required,uuid4"`
	CompensationPending bool      `json:"compensation_pending,omitempty" bson:"compensation_pending"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) IsTerminal() bool {
	return b.Status == BookingConfirmed || b.Status == BookingCancelled
}

// CreateBookingRequest is the inbound payload of POST /api/v1/bookings.
// Dates are YYYY-MM-DD strings and parsed by the handler.
type CreateBookingRequest struct {
	RequestID  string `json:"request_id"`
	RoomID     *int64 `json:"room_id,omitempty"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	AutoSelect bool   `json:"auto_select"`
}

// CreateBookingInput is a validated create request. RoomID is required unless
// AutoSelect is set.
type CreateBookingInput struct {
	RequestID   string    `json:"request_id" validate:"required,max=128"`
	RequesterID string    `json:"requester_id" validate:"required"`
	RoomID      *int64    `json:"room_id" validate:"omitempty,gt=0"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	AutoSelect  bool      `json:"auto_select"`
}
