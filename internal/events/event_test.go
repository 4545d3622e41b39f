package events

import (
	"testing"
	"time"

	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingEvent(t *testing.T) {
	start := time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC)
	at := start.Add(-time.Hour)
	b := &domain.Booking{
		ID:     "b-1",
		SpotID: "spot-1",
		UserID: "user-1",
		Window: domain.Window{Start: start, End: start.Add(time.Hour)},
		Status: domain.BookingStatusCancelled,
	}

	event := NewBookingEvent(EventBookingCancelled, b, at)

	assert.Equal(t, EventBookingCancelled, event.Type)
	assert.Equal(t, "b-1", event.BookingID)
	assert.Equal(t, "spot-1", event.SpotID)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "CANCELLED", event.Status)
	assert.Equal(t, start, event.StartTime)
	assert.Equal(t, start.Add(time.Hour), event.EndTime)
	assert.Equal(t, at, event.OccurredAt)
}
