package spots

import (
	"context"
	"errors"

	"github.com/Domenick1991/parkbooking/internal/apperrors"
	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/Domenick1991/parkbooking/internal/logger"
	"github.com/Domenick1991/parkbooking/internal/repository"
)

type SpotUseCase interface {
	List(ctx context.Context, filter domain.SpotFilter) ([]domain.Spot, error)
	GetByID(ctx context.Context, id string) (*domain.Spot, error)
	Types() []domain.SpotType
}

type SpotCache interface {
	GetSpots(ctx context.Context, filter domain.SpotFilter) ([]domain.Spot, error)
	SetSpots(ctx context.Context, filter domain.SpotFilter, spots []domain.Spot) error
}

type SpotService struct {
	repo  repository.SpotRepository
	cache SpotCache
	log   *logger.Logger
}

// NewSpotService builds the catalog service. cache may be nil.
func NewSpotService(repo repository.SpotRepository, cache SpotCache, log *logger.Logger) *SpotService {
	return &SpotService{repo: repo, cache: cache, log: log}
}

func (s *SpotService) List(ctx context.Context, filter domain.SpotFilter) ([]domain.Spot, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperrors.InvalidInput("unknown spot type").WithDetails(map[string]any{"type": filter.Type})
	}

	if s.cache != nil {
		cached, err := s.cache.GetSpots(ctx, filter)
		if err != nil {
			s.log.WarnContext(ctx, "Spot cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	spots, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Failed to list parking spots", err)
	}
	if s.cache != nil {
		if err := s.cache.SetSpots(ctx, filter, spots); err != nil {
			s.log.WarnContext(ctx, "Spot cache write failed", "error", err)
		}
	}
	return spots, nil
}

func (s *SpotService) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	spot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("resource", id)
		}
		return nil, apperrors.Internal("Failed to retrieve parking spot", err)
	}
	return spot, nil
}

func (s *SpotService) Types() []domain.SpotType {
	return domain.SpotTypes()
}

var _ SpotUseCase = (*SpotService)(nil)
