package events

import (
	"context"
	"time"

	"github.com/Domenick1991/parkbooking/internal/domain"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
)

type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	SpotID     string    `json:"parking_spot_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		SpotID:     b.SpotID,
		UserID:     b.UserID,
		Status:     string(b.Status),
		StartTime:  b.Window.Start,
		EndTime:    b.Window.End,
		OccurredAt: at,
	}
}

// Publisher is satisfied by both the Kafka producer and the RabbitMQ
// publisher.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}
