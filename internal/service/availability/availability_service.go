package availability

import (
	"context"
	"sort"

	"github.com/Domenick1991/parkbooking/internal/apperrors"
	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/Domenick1991/parkbooking/internal/logger"
	"github.com/Domenick1991/parkbooking/internal/repository"
)

type AvailabilityUseCase interface {
	FindAvailable(ctx context.Context, window domain.Window, filter domain.SpotFilter) ([]domain.Spot, error)
}

type SpotLister interface {
	List(ctx context.Context, filter domain.SpotFilter) ([]domain.Spot, error)
}

type OverlapFinder interface {
	ListConfirmedOverlapping(ctx context.Context, window domain.Window, spotIDs ...string) ([]domain.Booking, error)
}

type Cache interface {
	GetAvailable(ctx context.Context, window domain.Window, filter domain.SpotFilter) ([]domain.Spot, int64, error)
	SetAvailable(ctx context.Context, gen int64, window domain.Window, filter domain.SpotFilter, spots []domain.Spot) error
}

type AvailabilityService struct {
	spots    SpotLister
	bookings OverlapFinder
	cache    Cache
	log      *logger.Logger
}

type Option func(*AvailabilityService)

func WithCache(cache Cache) Option {
	return func(s *AvailabilityService) {
		s.cache = cache
	}
}

func NewAvailabilityService(spots SpotLister, bookings OverlapFinder, log *logger.Logger, opts ...Option) *AvailabilityService {
	service := &AvailabilityService{spots: spots, bookings: bookings, log: log}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// FindAvailable returns the spots matching filter that have no confirmed
// booking overlapping window, ordered by id. The answer is a snapshot and
// does not reserve anything. Past windows are allowed.
func (s *AvailabilityService) FindAvailable(ctx context.Context, window domain.Window, filter domain.SpotFilter) ([]domain.Spot, error) {
	if err := window.Validate(); err != nil {
		return nil, apperrors.InvalidWindow("end before start")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperrors.InvalidInput("unknown spot type").WithDetails(map[string]any{"type": filter.Type})
	}

	// gen is read before the store. An invalidation during the store read
	// leaves the answer written under gen unreachable.
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		cached, g, err := s.cache.GetAvailable(ctx, window, filter)
		if err != nil {
			s.log.WarnContext(ctx, "Availability cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		} else {
			gen, cacheable = g, true
		}
	}

	candidates, err := s.spots.List(ctx, filter)
	if err != nil {
		return nil, storeError("Failed to list parking spots", err)
	}
	if len(candidates) == 0 {
		return []domain.Spot{}, nil
	}

	ids := make([]string, len(candidates))
	for i, spot := range candidates {
		ids[i] = spot.ID
	}
	busy, err := s.bookings.ListConfirmedOverlapping(ctx, window, ids...)
	if err != nil {
		return nil, storeError("Failed to check bookings", err)
	}

	available := freeSpots(candidates, busy)

	if cacheable {
		if err := s.cache.SetAvailable(ctx, gen, window, filter, available); err != nil {
			s.log.WarnContext(ctx, "Availability cache write failed", "error", err)
		}
	}
	return available, nil
}

func freeSpots(candidates []domain.Spot, busy []domain.Booking) []domain.Spot {
	taken := make(map[string]struct{}, len(busy))
	for _, b := range busy {
		taken[b.SpotID] = struct{}{}
	}

	available := make([]domain.Spot, 0, len(candidates))
	for _, spot := range candidates {
		if _, ok := taken[spot.ID]; !ok {
			available = append(available, spot)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i].ID < available[j].ID })
	return available
}

func storeError(message string, err error) error {
	if repository.IsTransient(err) {
		return apperrors.Unavailable("booking store", err)
	}
	return apperrors.Internal(message, err)
}

var _ AvailabilityUseCase = (*AvailabilityService)(nil)
