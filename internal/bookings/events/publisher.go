package events

import (
	"context"
	"fmt"
	"time"

	"staybook/pkg/kafka"
	"staybook/pkg/model"
)

const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"

	Source        = "bookings"
	SchemaVersion = "1"
)

// BookingEvent is the payload of every booking event.
type BookingEvent struct {
	BookingID           string    `json:"booking_id"`
	RequestID           string    `json:"request_id"`
	RequesterID         string    `json:"requester_id"`
	RoomID              int64     `json:"room_id"`
	StartDate           string    `json:"start_date"`
	EndDate             string    `json:"end_date"`
	Status              string    `json:"status"`
	CompensationPending bool      `json:"compensation_pending"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// Publisher announces terminal booking transitions.
type Publisher interface {
	Publish(ctx context.Context, eventType string, booking *model.Booking) error
}

// Sender is satisfied by *kafka.Producer.
type Sender interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	sender Sender
}

func NewKafkaPublisher(sender Sender) *KafkaPublisher {
	return &KafkaPublisher{sender: sender}
}

// Publish keys the record by request_id so all events of one booking land
// on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, booking *model.Booking) error {
	msg, err := kafka.NewMessage().
		WithKey(booking.RequestID).
		WithValue(NewBookingEvent(booking)).
		WithEventType(eventType).
		WithCorrelationID(booking.CorrelationID).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", eventType, err)
	}

	if err := p.sender.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func NewBookingEvent(b *model.Booking) BookingEvent {
	return BookingEvent{
		BookingID:           b.ID,
		RequestID:           b.RequestID,
		RequesterID:         b.RequesterID,
		RoomID:              b.RoomID,
		StartDate:           b.StartDate.Format(time.DateOnly),
		EndDate:             b.EndDate.Format(time.DateOnly),
		Status:              b.Status,
		CompensationPending: b.CompensationPending,
		OccurredAt:          time.Now().UTC(),
	}
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *model.Booking) error {
	return nil
}
