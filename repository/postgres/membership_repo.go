package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/repository"
)

const pgUniqueViolation = "23505"

type membershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRequestRepository instantiates a Postgres-backed request repository.
func NewMembershipRequestRepository(pool *pgxpool.Pool) repository.MembershipRequestRepository {
	return &membershipRepository{pool: pool}
}

func (r *membershipRepository) Create(ctx context.Context, request *domain.MembershipRequest) error {
	if request == nil {
		return domain.ErrInvalidPayload
	}

	// A partial unique index on (user_id) WHERE status = 'pending' makes the
	// at-most-one-pending invariant hold under concurrent creations.
	const query = `
		INSERT INTO membership_requests (id, user_id, plan_months, status, requested_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING requested_at
	`

	var requestedAt time.Time
	err := r.pool.QueryRow(ctx, query,
		request.ID,
		request.UserID,
		request.PlanMonths,
		string(domain.RequestPending),
		nullTime(request.RequestedAt),
	).Scan(&requestedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrPendingRequestExists
		}
		return wrapUnavailable(err)
	}

	request.Status = domain.RequestPending
	request.RequestedAt = requestedAt
	return nil
}

func (r *membershipRepository) GetByID(ctx context.Context, id string) (*domain.MembershipRequest, error) {
	const query = `
		SELECT id, user_id, plan_months, status, requested_at, decided_at
		FROM membership_requests
		WHERE id = $1
	`
	request, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, wrapUnavailable(err)
	}
	return request, nil
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID string) ([]domain.MembershipRequest, error) {
	const query = `
		SELECT id, user_id, plan_months, status, requested_at, decided_at
		FROM membership_requests
		WHERE user_id = $1
		ORDER BY requested_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	defer rows.Close()

	var requests []domain.MembershipRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

// Approve flips the request pending -> approved and applies the plan to the
// user record in one transaction. The WHERE status = 'pending' clause is the
// compare-and-set: a request that lost the race reports no rows and the
// caller sees ErrRequestNotFound, never a double apply.
func (r *membershipRepository) Approve(ctx context.Context, id string, decidedAt time.Time) (*domain.UserRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	defer tx.Rollback(ctx)

	const casQuery = `
		UPDATE membership_requests
		SET status = 'approved', decided_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING user_id, plan_months
	`

	var userID string
	var planMonths int
	if err := tx.QueryRow(ctx, casQuery, id, decidedAt).Scan(&userID, &planMonths); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, wrapUnavailable(err)
	}

	expiry := domain.MembershipExpiry(decidedAt, planMonths)

	const userQuery = `
		UPDATE users
		SET membership_plan = $2, membership_expiry = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, name, role, membership_plan, membership_expiry, created_at
	`

	var user domain.UserRecord
	var role string
	if err := tx.QueryRow(ctx, userQuery, userID, planMonths, expiry).Scan(
		&user.ID, &user.Email, &user.Name, &role, &user.MembershipPlan, &user.MembershipExpiry, &user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserRecordNotFound
		}
		return nil, wrapUnavailable(err)
	}
	user.Role = domain.Role(role)

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapUnavailable(err)
	}
	return &user, nil
}

func (r *membershipRepository) Reject(ctx context.Context, id string, decidedAt time.Time) error {
	const query = `
		UPDATE membership_requests
		SET status = 'rejected', decided_at = $2
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, id, decidedAt)
	if err != nil {
		return wrapUnavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (*domain.MembershipRequest, error) {
	var request domain.MembershipRequest
	var status string
	if err := row.Scan(&request.ID, &request.UserID, &request.PlanMonths, &status, &request.RequestedAt, &request.DecidedAt); err != nil {
		return nil, err
	}
	request.Status = domain.RequestStatus(status)
	return &request, nil
}
