package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/parkbooking/internal/domain"
)

// MemoryBookingRepository keeps bookings in process. Inserts are serialized
// per spot by a keyed mutex; bookings on different spots never contend.
type MemoryBookingRepository struct {
	locks *keyedMutex
	now   func() time.Time

	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		locks:    newKeyedMutex(),
		now:      time.Now,
		bookings: make(map[string]domain.Booking),
	}
}

func (r *MemoryBookingRepository) InsertIfNoOverlap(ctx context.Context, booking *domain.Booking) error {
	unlock, err := r.locks.Lock(ctx, booking.SpotID)
	if err != nil {
		return err
	}
	defer unlock()

	overlapping, err := r.ListConfirmedOverlapping(ctx, booking.Window, booking.SpotID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return ErrOverlap
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[booking.ID]; exists {
		return ErrOverlap
	}
	now := r.now()
	booking.Status = domain.BookingStatusConfirmed
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *MemoryBookingRepository) ListConfirmedOverlapping(ctx context.Context, window domain.Window, spotIDs ...string) ([]domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(spotIDs))
	for _, id := range spotIDs {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Booking, 0)
	for _, b := range r.bookings {
		if !b.IsConfirmed() || !b.Window.Overlaps(window) {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[b.SpotID]; !ok {
				continue
			}
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SpotID != result[j].SpotID {
			return result[i].SpotID < result[j].SpotID
		}
		return result[i].Window.Start.Before(result[j].Window.Start)
	})
	return result, nil
}

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[booking.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = booking.Status
	stored.UpdatedAt = r.now()
	r.bookings[booking.ID] = stored
	booking.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *MemoryBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	return r.filter(ctx, func(domain.Booking) bool { return true })
}

func (r *MemoryBookingRepository) ListUpcomingByUser(ctx context.Context, userID string, from time.Time) ([]domain.Booking, error) {
	return r.filter(ctx, func(b domain.Booking) bool {
		return b.UserID == userID && b.IsConfirmed() && !b.Window.Start.Before(from)
	})
}

func (r *MemoryBookingRepository) filter(ctx context.Context, keep func(domain.Booking) bool) ([]domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Booking, 0)
	for _, b := range r.bookings {
		if keep(b) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Window.Start.Equal(result[j].Window.Start) {
			return result[i].Window.Start.Before(result[j].Window.Start)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ BookingRepository = (*MemoryBookingRepository)(nil)

// keyedMutex hands out one lock per key. Entries are reference counted and
// dropped once no goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free or ctx is done.
func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			k.release(key, l)
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(key string, l *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}
