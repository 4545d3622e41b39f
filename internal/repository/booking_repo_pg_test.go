package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	args := m.Called(ctx, opts)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	a := m.Called(ctx, sql, args)
	rows, _ := a.Get(0).(pgx.Rows)
	return rows, a.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.Called(ctx, sql, args).Get(0).(pgx.Row)
}

// MockTx implements the transaction methods the booking store calls. The
// embedded pgx.Tx is nil and panics if anything else is used.
type MockTx struct {
	pgx.Tx
	mock.Mock
}

func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	a := m.Called(ctx, sql, args)
	rows, _ := a.Get(0).(pgx.Rows)
	return rows, a.Error(1)
}

func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.Called(ctx, sql, args).Get(0).(pgx.Row)
}

func (m *MockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	pgx.Rows
	rows   [][]any
	next   int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.next >= len(r.rows) {
		return false
	}
	r.next++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.rows[r.next-1])
}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Close() { r.closed = true }

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(values[i]))
	}
	return nil
}

func sqlContaining(fragment string) any {
	return mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, fragment) })
}

var (
	pgStart   = time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC)
	pgCreated = time.Date(2030, 5, 20, 9, 0, 0, 0, time.UTC)
)

func pgBooking() *domain.Booking {
	return &domain.Booking{
		ID:     "7d5c1a52-3b8e-4c55-9a55-0f8b7a0c2b11",
		SpotID: "spot-1",
		UserID: "user-1",
		Window: domain.Window{Start: pgStart, End: pgStart.Add(time.Hour)},
	}
}

func bookingRow(id, spot string, start, end time.Time) []any {
	return []any{id, spot, "user-2", start, end, domain.BookingStatusConfirmed, pgCreated, pgCreated}
}

// beginTx wires a MockDB that hands out tx. Rollback is always deferred by
// the store, so it is expected on every path.
func beginTx(tx *MockTx) *MockDB {
	db := &MockDB{}
	db.On("BeginTx", mock.Anything, pgx.TxOptions{}).Return(tx, nil).Once()
	tx.On("Rollback", mock.Anything).Return(nil)
	return db
}

func TestPGBookingRepository_InsertIfNoOverlap_Success(t *testing.T) {
	tx := &MockTx{}
	db := beginTx(tx)
	repo := NewBookingRepository(db)
	booking := pgBooking()
	busy := &fakeRows{}

	tx.On("QueryRow", mock.Anything, sqlContaining("FOR UPDATE"), []any{"spot-1"}).
		Return(fakeRow{values: []any{"spot-1"}}).Once()
	tx.On("Query", mock.Anything, sqlContaining("start_time < $3 AND end_time > $2"),
		[]any{domain.BookingStatusConfirmed, booking.Window.Start, booking.Window.End, []string{"spot-1"}}).
		Return(busy, nil).Once()
	tx.On("QueryRow", mock.Anything, sqlContaining("INSERT INTO reservations"), mock.Anything).
		Return(fakeRow{values: []any{pgCreated, pgCreated}}).Once()
	tx.On("Commit", mock.Anything).Return(nil).Once()

	err := repo.InsertIfNoOverlap(context.Background(), booking)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, pgCreated, booking.CreatedAt)
	assert.True(t, busy.closed)
	tx.AssertExpectations(t)
	db.AssertExpectations(t)
}

func TestPGBookingRepository_InsertIfNoOverlap_Rejected(t *testing.T) {
	testCases := []struct {
		name      string
		lockRow   fakeRow
		busy      [][]any
		insertErr error
		expected  error
	}{
		{
			name:     "unknown spot",
			lockRow:  fakeRow{err: pgx.ErrNoRows},
			expected: ErrNotFound,
		},
		{
			name:     "overlapping confirmed booking",
			lockRow:  fakeRow{values: []any{"spot-1"}},
			busy:     [][]any{bookingRow("other", "spot-1", pgStart.Add(30*time.Minute), pgStart.Add(2*time.Hour))},
			expected: ErrOverlap,
		},
		{
			name:      "exclusion constraint",
			lockRow:   fakeRow{values: []any{"spot-1"}},
			insertErr: &pgconn.PgError{Code: pgExclusionViolation},
			expected:  ErrOverlap,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := &MockTx{}
			db := beginTx(tx)
			repo := NewBookingRepository(db)

			tx.On("QueryRow", mock.Anything, sqlContaining("FOR UPDATE"), mock.Anything).Return(tc.lockRow).Once()
			tx.On("Query", mock.Anything, sqlContaining("FROM reservations"), mock.Anything).
				Return(&fakeRows{rows: tc.busy}, nil).Maybe()
			tx.On("QueryRow", mock.Anything, sqlContaining("INSERT INTO reservations"), mock.Anything).
				Return(fakeRow{err: tc.insertErr}).Maybe()

			err := repo.InsertIfNoOverlap(context.Background(), pgBooking())

			assert.ErrorIs(t, err, tc.expected)
			tx.AssertNotCalled(t, "Commit", mock.Anything)
			tx.AssertCalled(t, "Rollback", mock.Anything)
			if tc.busy != nil {
				tx.AssertNotCalled(t, "QueryRow", mock.Anything, sqlContaining("INSERT INTO reservations"), mock.Anything)
			}
		})
	}
}

func TestPGBookingRepository_InsertIfNoOverlap_BeginError(t *testing.T) {
	db := &MockDB{}
	db.On("BeginTx", mock.Anything, pgx.TxOptions{}).Return(nil, errors.New("pool closed")).Once()

	err := NewBookingRepository(db).InsertIfNoOverlap(context.Background(), pgBooking())
	assert.EqualError(t, err, "pool closed")
}

func TestPGBookingRepository_ListConfirmedOverlapping(t *testing.T) {
	db := &MockDB{}
	w := domain.Window{Start: pgStart, End: pgStart.Add(time.Hour)}
	rows := &fakeRows{rows: [][]any{bookingRow("b1", "spot-2", pgStart, pgStart.Add(time.Hour))}}

	db.On("Query", mock.Anything, mock.MatchedBy(func(sql string) bool { return !strings.Contains(sql, "ANY") }),
		[]any{domain.BookingStatusConfirmed, w.Start, w.End}).Return(rows, nil).Once()

	result, err := NewBookingRepository(db).ListConfirmedOverlapping(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "b1", result[0].ID)
	assert.Equal(t, w, result[0].Window)
	assert.True(t, rows.closed)
}

func TestPGBookingRepository_GetAndUpdate(t *testing.T) {
	db := &MockDB{}
	repo := NewBookingRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)

	id := pgBooking().ID
	db.On("QueryRow", mock.Anything, sqlContaining("WHERE id=$1"), []any{id}).Return(fakeRow{err: pgx.ErrNoRows}).Once()
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	db.On("QueryRow", mock.Anything, sqlContaining("UPDATE reservations"), mock.Anything).Return(fakeRow{err: pgx.ErrNoRows}).Once()
	err = repo.Update(ctx, &domain.Booking{ID: id, Status: domain.BookingStatusCancelled})
	assert.ErrorIs(t, err, ErrNotFound)

	db.AssertExpectations(t)
}
