package audit

import (
	"context"
	"time"

	"github.com/Domenick1991/parkbooking/internal/events"
	"github.com/Domenick1991/parkbooking/internal/logger"
)

// Recorder writes one structured audit line per booking event.
type Recorder struct {
	log *logger.Logger
}

func NewRecorder(log *logger.Logger) *Recorder {
	return &Recorder{log: log}
}

func (r *Recorder) Record(ctx context.Context, event events.BookingEvent) error {
	r.log.InfoContext(ctx, "booking audit",
		"event", event.Type,
		"booking_id", event.BookingID,
		"parking_spot_id", event.SpotID,
		"user_id", event.UserID,
		"status", event.Status,
		"start_time", event.StartTime.Format(time.RFC3339),
		"end_time", event.EndTime.Format(time.RFC3339),
		"occurred_at", event.OccurredAt.Format(time.RFC3339),
	)
	return nil
}
