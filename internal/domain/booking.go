package domain

import (
	"errors"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

var (
	ErrAlreadyStarted    = errors.New("cannot cancel a booking that has started or ended")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// transitions lists the statuses reachable from each status. CANCELLED is
// terminal; re-cancelling is accepted as a no-op.
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusConfirmed: {BookingStatusCancelled},
	BookingStatusCancelled: {BookingStatusCancelled},
}

func (s BookingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID        string
	SpotID    string
	UserID    string
	Window    Window
	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cancel moves the booking to CANCELLED. Bookings whose window has started
// (now >= start) are rejected whatever their current status.
func (b *Booking) Cancel(now time.Time) error {
	if !now.Before(b.Window.Start) {
		return ErrAlreadyStarted
	}
	if !b.Status.CanTransitionTo(BookingStatusCancelled) {
		return ErrInvalidTransition
	}
	b.Status = BookingStatusCancelled
	return nil
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}
