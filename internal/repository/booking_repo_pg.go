package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	// InsertIfNoOverlap inserts booking as CONFIRMED unless a confirmed
	// booking on the same spot overlaps its window. Concurrent calls for the
	// same spot are serialized.
	InsertIfNoOverlap(ctx context.Context, booking *domain.Booking) error
	// ListConfirmedOverlapping returns confirmed bookings overlapping window,
	// restricted to spotIDs when any are given.
	ListConfirmedOverlapping(ctx context.Context, window domain.Window, spotIDs ...string) ([]domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context) ([]domain.Booking, error)
	ListUpcomingByUser(ctx context.Context, userID string, from time.Time) ([]domain.Booking, error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DB is the part of *pgxpool.Pool the booking store uses.
type DB interface {
	querier
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

const bookingColumns = `id::text, parking_spot_id::text, user_id::text, start_time, end_time, status, created_at, updated_at`

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) InsertIfNoOverlap(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The spot row lock orders concurrent inserts for one spot; other spots
	// are unaffected.
	var spotID string
	if err := tx.QueryRow(ctx, `SELECT id::text FROM parking_spots WHERE id=$1 FOR UPDATE`, booking.SpotID).Scan(&spotID); err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return err
	}

	overlapping, err := listConfirmedOverlapping(ctx, tx, booking.Window, []string{spotID})
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return ErrOverlap
	}

	booking.Status = domain.BookingStatusConfirmed
	if err := tx.QueryRow(ctx, `INSERT INTO reservations (id, parking_spot_id, user_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`, booking.ID, booking.SpotID, booking.UserID, booking.Window.Start, booking.Window.End, booking.Status).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		if pgCode(err) == pgExclusionViolation {
			return ErrOverlap
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) ListConfirmedOverlapping(ctx context.Context, window domain.Window, spotIDs ...string) ([]domain.Booking, error) {
	return listConfirmedOverlapping(ctx, r.db, window, spotIDs)
}

func listConfirmedOverlapping(ctx context.Context, q querier, window domain.Window, spotIDs []string) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM reservations
		WHERE status=$1 AND start_time < $3 AND end_time > $2`
	args := []any{domain.BookingStatusConfirmed, window.Start, window.End}
	if len(spotIDs) > 0 {
		query += ` AND parking_spot_id::text = ANY($4)`
		args = append(args, spotIDs)
	}
	query += ` ORDER BY parking_spot_id, start_time`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM reservations WHERE id=$1`, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.SpotID, &b.UserID, &b.Window.Start, &b.Window.End, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Update persists the booking status. No other column changes after insert.
func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	if err := r.db.QueryRow(ctx, `UPDATE reservations SET status=$1, updated_at=now() WHERE id=$2 RETURNING updated_at`, booking.Status, booking.ID).
		Scan(&booking.UpdatedAt); err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		if pgCode(err) == pgExclusionViolation {
			return ErrOverlap
		}
		return err
	}
	return nil
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM reservations ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *PGBookingRepository) ListUpcomingByUser(ctx context.Context, userID string, from time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM reservations
		WHERE user_id::text=$1 AND status=$2 AND start_time >= $3
		ORDER BY start_time`, userID, domain.BookingStatusConfirmed, from)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.SpotID, &b.UserID, &b.Window.Start, &b.Window.End, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
