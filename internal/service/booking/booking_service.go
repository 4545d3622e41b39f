package booking

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/parkbooking/internal/apperrors"
	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/Domenick1991/parkbooking/internal/events"
	"github.com/Domenick1991/parkbooking/internal/logger"
	"github.com/Domenick1991/parkbooking/internal/repository"
	"github.com/google/uuid"
)

const (
	msgStartNotInFuture = "start not in future"
	msgEndBeforeStart   = "end before start"
	msgDurationExceeded = "duration exceeds maximum"
	msgOverlap          = "resource already booked for overlapping window"
	msgAlreadyStarted   = "cannot cancel a booking that has started or ended"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, id string) error
}

// Directory answers whether an id refers to an existing record.
type Directory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type AvailabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context) error
}

type BookingService struct {
	bookings     repository.BookingRepository
	spots        Directory
	users        Directory
	cache        AvailabilityInvalidator
	producer     events.Publisher
	bookingTopic string
	maxDuration  time.Duration
	now          func() time.Time
	log          *logger.Logger
}

type CreateBookingInput struct {
	SpotID    string
	UserID    string
	StartTime time.Time
	EndTime   time.Time
}

type BookingServiceOption func(*BookingService)

func WithCache(cache AvailabilityInvalidator) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithProducer(producer events.Publisher, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	spots Directory,
	users Directory,
	maxDuration time.Duration,
	log *logger.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:    bookings,
		spots:       spots,
		users:       users,
		maxDuration: maxDuration,
		now:         time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking validates the request in a fixed order (window, holder,
// spot) and then inserts the booking under the spot's lock.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	window := domain.Window{Start: input.StartTime, End: input.EndTime}
	if err := s.validateWindow(window, s.now()); err != nil {
		return nil, err
	}
	if err := s.ensureExists(ctx, s.users, "holder", input.UserID); err != nil {
		return nil, err
	}
	if err := s.ensureExists(ctx, s.spots, "resource", input.SpotID); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:     uuid.NewString(),
		SpotID: input.SpotID,
		UserID: input.UserID,
		Window: window,
		Status: domain.BookingStatusConfirmed,
	}

	if err := s.bookings.InsertIfNoOverlap(ctx, booking); err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			s.log.InfoContext(ctx, "Booking rejected, overlapping window",
				"parking_spot_id", booking.SpotID,
				"start_time", window.Start,
				"end_time", window.End,
			)
			return nil, apperrors.Conflict(msgOverlap)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFoundWithID("resource", input.SpotID)
		default:
			s.log.ErrorContext(ctx, "Failed to create booking", "parking_spot_id", booking.SpotID, "error", err)
			return nil, storeError("Failed to create booking", err)
		}
	}

	s.log.InfoContext(ctx, "Booking created",
		"id", booking.ID,
		"parking_spot_id", booking.SpotID,
		"user_id", booking.UserID,
		"start_time", window.Start,
		"end_time", window.End,
	)
	s.afterMutation(ctx, events.EventBookingCreated, booking)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("booking", id)
		}
		return nil, storeError("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, storeError("Failed to list bookings", err)
	}
	return bookings, nil
}

// ListUserBookings returns the holder's confirmed bookings that have not
// started yet.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	if err := s.ensureExists(ctx, s.users, "holder", userID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListUpcomingByUser(ctx, userID, s.now())
	if err != nil {
		return nil, storeError("Failed to list user bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, id string) error {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := booking.Cancel(s.now()); err != nil {
		s.log.InfoContext(ctx, "Booking cancellation rejected", "id", id, "status", booking.Status, "error", err)
		if errors.Is(err, domain.ErrAlreadyStarted) {
			return apperrors.InvalidState(msgAlreadyStarted)
		}
		return apperrors.InvalidState(err.Error())
	}

	if err := s.bookings.Update(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFoundWithID("booking", id)
		}
		s.log.ErrorContext(ctx, "Failed to cancel booking", "id", id, "error", err)
		return storeError("Failed to cancel booking", err)
	}

	s.log.InfoContext(ctx, "Booking cancelled", "id", id, "parking_spot_id", booking.SpotID)
	s.afterMutation(ctx, events.EventBookingCancelled, booking)
	return nil
}

func (s *BookingService) validateWindow(window domain.Window, now time.Time) error {
	if !window.Start.After(now) {
		return apperrors.InvalidWindow(msgStartNotInFuture)
	}
	if err := window.Validate(); err != nil {
		return apperrors.InvalidWindow(msgEndBeforeStart)
	}
	if window.Duration() > s.maxDuration {
		return apperrors.InvalidWindow(msgDurationExceeded).WithDetails(map[string]any{
			"max_duration": s.maxDuration.String(),
		})
	}
	return nil
}

func (s *BookingService) ensureExists(ctx context.Context, dir Directory, resource, id string) error {
	exists, err := dir.Exists(ctx, id)
	if err != nil {
		return storeError("Failed to look up "+resource, err)
	}
	if !exists {
		return apperrors.NotFoundWithID(resource, id)
	}
	return nil
}

// afterMutation drops cached availability and publishes the event. Neither
// failure undoes the committed change; both are logged.
func (s *BookingService) afterMutation(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.cache != nil {
		if err := s.cache.InvalidateAvailability(ctx); err != nil {
			s.log.WarnContext(ctx, "Failed to invalidate availability cache", "booking_id", booking.ID, "error", err)
		}
	}
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := events.NewBookingEvent(eventType, booking, s.now())
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		s.log.WarnContext(ctx, "Failed to publish booking event", "event", eventType, "booking_id", booking.ID, "error", err)
	}
}

func storeError(message string, err error) error {
	if repository.IsTransient(err) {
		return apperrors.Unavailable("booking store", err)
	}
	return apperrors.Internal(message, err)
}

var _ BookingUseCase = (*BookingService)(nil)
