package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Domenick1991/parkbooking/internal/domain"
)

type MemorySpotRepository struct {
	mu    sync.RWMutex
	spots map[string]domain.Spot
}

func NewMemorySpotRepository(spots ...domain.Spot) *MemorySpotRepository {
	r := &MemorySpotRepository{spots: make(map[string]domain.Spot, len(spots))}
	for _, s := range spots {
		r.spots[s.ID] = s
	}
	return r
}

func (r *MemorySpotRepository) Add(spot domain.Spot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spots[spot.ID] = spot
}

func (r *MemorySpotRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.spots[id]
	return ok, nil
}

func (r *MemorySpotRepository) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.spots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySpotRepository) List(ctx context.Context, filter domain.SpotFilter) ([]domain.Spot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spots := make([]domain.Spot, 0, len(r.spots))
	for _, s := range r.spots {
		if filter.Matches(s) {
			spots = append(spots, s)
		}
	}
	sort.Slice(spots, func(i, j int) bool { return spots[i].ID < spots[j].ID })
	return spots, nil
}

var _ SpotRepository = (*MemorySpotRepository)(nil)

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

func NewMemoryUserRepository(ids ...string) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		r.users[id] = struct{}{}
	}
	return r
}

func (r *MemoryUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[id]
	return ok, nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
