package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDuplicateRequest = errors.New("booking already exists for request")

	// ErrTransitionLost means the booking was no longer in the expected status
	// when a compare-and-set transition was applied.
	ErrTransitionLost = errors.New("booking changed status concurrently")
)
