package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrOverlap is returned by InsertIfNoOverlap when a confirmed booking on
	// the same spot overlaps the requested window.
	ErrOverlap = errors.New("overlapping confirmed booking")
)

const pgExclusionViolation = "23P01"

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsTransient reports whether err is a store failure a caller may retry:
// timeouts, lock waits and connection loss.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	switch pgCode(err) {
	case "40001", "40P01", "55P03", "57014":
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
