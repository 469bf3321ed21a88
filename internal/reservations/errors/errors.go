package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation lock not found")

	ErrDuplicateRequest = errors.New("reservation lock already exists for request")

	// ErrTransitionLost means the lock was no longer in the expected status
	// when a compare-and-set transition was applied.
	ErrTransitionLost = errors.New("reservation lock changed status concurrently")

	ErrInvalidRoomID = errors.New("invalid room ID")

	ErrInvalidDateRange = errors.New("end date must not be before start date")
)
