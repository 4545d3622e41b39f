package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SpotRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Spot, error)
	List(ctx context.Context, filter domain.SpotFilter) ([]domain.Spot, error)
}

type PGSpotRepository struct {
	db *pgxpool.Pool
}

func NewSpotRepository(db *pgxpool.Pool) SpotRepository {
	return &PGSpotRepository{db: db}
}

func (r *PGSpotRepository) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM parking_spots WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PGSpotRepository) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id::text, spot_number, type, parking_lot_id::text FROM parking_spots WHERE id=$1`, id)
	var s domain.Spot
	if err := row.Scan(&s.ID, &s.SpotNumber, &s.Type, &s.ParkingLotID); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns spots matching filter ordered by id.
func (r *PGSpotRepository) List(ctx context.Context, filter domain.SpotFilter) ([]domain.Spot, error) {
	query, args := spotListQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := make([]domain.Spot, 0)
	for rows.Next() {
		var s domain.Spot
		if err := rows.Scan(&s.ID, &s.SpotNumber, &s.Type, &s.ParkingLotID); err != nil {
			return nil, err
		}
		spots = append(spots, s)
	}
	return spots, rows.Err()
}

func spotListQuery(filter domain.SpotFilter) (string, []any) {
	query := `SELECT id::text, spot_number, type, parking_lot_id::text FROM parking_spots WHERE true`
	var args []any
	if filter.ParkingLotID != "" {
		args = append(args, filter.ParkingLotID)
		query += fmt.Sprintf(` AND parking_lot_id::text=$%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(` AND type=$%d`, len(args))
	}
	query += ` ORDER BY id`
	return query, args
}

var _ SpotRepository = (*PGSpotRepository)(nil)
