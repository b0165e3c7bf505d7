package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/repository"
)

// A member's load counts unreturned loans plus admitted reservations still
// waiting on the lending workflow, so an admission immediately raises the
// count seen by the next attempt.
const activeLoadQuery = `
	SELECT
		(SELECT COUNT(*) FROM loans WHERE member_id = $1 AND returned_at IS NULL) +
		(SELECT COUNT(*) FROM reservations WHERE member_id = $1 AND status = 'pending')
`

type reservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository instantiates a Postgres-backed reservation repository.
func NewReservationRepository(pool *pgxpool.Pool) repository.ReservationRepository {
	return &reservationRepository{pool: pool}
}

func (r *reservationRepository) CountActiveBorrows(ctx context.Context, memberID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, activeLoadQuery, memberID).Scan(&count); err != nil {
		return 0, wrapUnavailable(err)
	}
	return count, nil
}

// Admit is the single atomic admission decision: the count re-check and the
// insert run in one transaction serialized per member by an advisory lock,
// so two concurrent attempts cannot both be admitted past the limit.
func (r *reservationRepository) Admit(ctx context.Context, reservation *domain.ReservationRequest, maxActive int) error {
	if reservation == nil {
		return domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapUnavailable(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, reservation.MemberID); err != nil {
		return wrapUnavailable(err)
	}

	var count int
	if err := tx.QueryRow(ctx, activeLoadQuery, reservation.MemberID).Scan(&count); err != nil {
		return wrapUnavailable(err)
	}
	if count >= maxActive {
		return domain.ErrMaxBorrowLimitExceeded
	}

	const insertQuery = `
		INSERT INTO reservations (id, book_id, member_id, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', COALESCE($6, NOW()))
		RETURNING created_at
	`

	var createdAt time.Time
	if err := tx.QueryRow(ctx, insertQuery,
		reservation.ID,
		reservation.BookID,
		reservation.MemberID,
		reservation.StartDate,
		reservation.EndDate,
		nullTime(reservation.CreatedAt),
	).Scan(&createdAt); err != nil {
		return wrapUnavailable(err)
	}
	reservation.CreatedAt = createdAt

	if err := tx.Commit(ctx); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}
