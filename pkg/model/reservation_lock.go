package model

import "time"

const (
	LockHeld      = "HELD"
	LockConfirmed = "CONFIRMED"
	LockReleased  = "RELEASED"
)

// ActiveLockStatuses are the statuses that occupy a room's date range.
var ActiveLockStatuses = []string{LockHeld, LockConfirmed}

// ReservationLock is the holder-side record of a hold for one request_id.
// StartDate and EndDate are both inclusive.
type ReservationLock struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	RequestID string    `json:"request_id" bson:"request_id" validate:"required,max=128"`
	RoomID    int64     `json:"room_id" bson:"room_id" validate:"required,gt=0"`
	StartDate time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" bson:"end_date" validate:"required,gtefield=StartDate"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=HELD CONFIRMED RELEASED"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (l *ReservationLock) IsActive() bool {
	return l.Status == LockHeld || l.Status == LockConfirmed
}

// Overlaps applies the inclusive-range test used for conflict detection.
func (l *ReservationLock) Overlaps(start, end time.Time) bool {
	return !l.StartDate.After(end) && !l.EndDate.Before(start)
}

type HoldRequest struct {
	RequestID string `json:"request_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type LockRequest struct {
	RequestID string `json:"request_id"`
}
