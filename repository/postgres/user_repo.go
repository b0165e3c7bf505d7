package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserRecord, error) {
	const query = `
		SELECT id, email, name, role, membership_plan, membership_expiry, created_at
		FROM users
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var user domain.UserRecord
	var role string

	// The raw role value is carried as-is; the identity gate decides what
	// an unrecognized value means.
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &user.MembershipPlan, &user.MembershipExpiry, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserRecordNotFound
		}
		return nil, wrapUnavailable(err)
	}
	user.Role = domain.Role(role)

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.UserRecord) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
		INSERT INTO users (id, email, name, role, membership_plan, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING created_at
	`

	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		string(user.Role),
		user.MembershipPlan,
		nullTime(user.CreatedAt),
	).Scan(&createdAt); err != nil {
		return wrapUnavailable(err)
	}

	user.CreatedAt = createdAt
	return nil
}

func (r *userRepository) UpdateName(ctx context.Context, id, name string) error {
	const query = `UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, name)
	if err != nil {
		return wrapUnavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserRecordNotFound
	}
	return nil
}

func (r *userRepository) SetMembership(ctx context.Context, id string, planMonths int, expiry time.Time) (*domain.UserRecord, error) {
	const query = `
		UPDATE users
		SET membership_plan = $2, membership_expiry = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, name, role, membership_plan, membership_expiry, created_at
	`
	row := r.pool.QueryRow(ctx, query, id, planMonths, expiry)

	var user domain.UserRecord
	var role string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &user.MembershipPlan, &user.MembershipExpiry, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserRecordNotFound
		}
		return nil, wrapUnavailable(err)
	}
	user.Role = domain.Role(role)

	return &user, nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
