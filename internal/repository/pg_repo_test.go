package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewSpotRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewSpotRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewUserRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewUserRepository(pool)
	assert.NotNil(t, repo)
}

func TestSpotListQuery(t *testing.T) {
	testCases := []struct {
		name      string
		filter    domain.SpotFilter
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "no filter",
			wantQuery: `SELECT id::text, spot_number, type, parking_lot_id::text FROM parking_spots WHERE true ORDER BY id`,
		},
		{
			name:      "lot only",
			filter:    domain.SpotFilter{ParkingLotID: "lot-1"},
			wantQuery: `SELECT id::text, spot_number, type, parking_lot_id::text FROM parking_spots WHERE true AND parking_lot_id::text=$1 ORDER BY id`,
			wantArgs:  []any{"lot-1"},
		},
		{
			name:      "lot and type",
			filter:    domain.SpotFilter{ParkingLotID: "lot-1", Type: domain.SpotTypeElectric},
			wantQuery: `SELECT id::text, spot_number, type, parking_lot_id::text FROM parking_spots WHERE true AND parking_lot_id::text=$1 AND type=$2 ORDER BY id`,
			wantArgs:  []any{"lot-1", "ELECTRIC"},
		},
		{
			name:      "type only",
			filter:    domain.SpotFilter{Type: domain.SpotTypeCompact},
			wantQuery: `SELECT id::text, spot_number, type, parking_lot_id::text FROM parking_spots WHERE true AND type=$1 ORDER BY id`,
			wantArgs:  []any{"COMPACT"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query, args := spotListQuery(tc.filter)
			assert.Equal(t, tc.wantQuery, query)
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("boom")))
	assert.False(t, IsTransient(ErrNotFound))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "55P03"}))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsTransient(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.False(t, IsTransient(context.Canceled))
}
