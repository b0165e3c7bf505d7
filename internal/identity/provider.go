package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/usecase"
)

const pgUniqueViolation = "23505"

// Provider is the bundled identity provider: credentials in Postgres with
// Argon2id hashing, live sign-ins tracked in Redis so Current can answer
// whether a principal still has a provider session. Deployments fronted by
// a hosted provider swap this for their own usecase.IdentityProvider.
type Provider struct {
	pool   *pgxpool.Pool
	redis  *redislib.Client
	logger *zap.Logger
}

func NewProvider(pool *pgxpool.Pool, redis *redislib.Client, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		pool:   pool,
		redis:  redis,
		logger: logger,
	}
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	const query = `
		SELECT user_id, email, email_verified, password_hash, salt
		FROM credentials
		WHERE email = $1
	`

	var principal domain.Principal
	var hash, salt string
	err := p.pool.QueryRow(ctx, query, email).Scan(&principal.ID, &principal.Email, &principal.EmailVerified, &hash, &salt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	ok, err := verifyPassword(password, salt, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid credentials")
	}

	if err := p.redis.Set(ctx, p.signInKey(principal.ID), principal.Email, 0).Err(); err != nil {
		return nil, err
	}

	return &principal, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.Principal, error) {
	hash, salt, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	principal := &domain.Principal{
		ID:    uuid.NewString(),
		Email: email,
	}

	const query = `
		INSERT INTO credentials (user_id, email, email_verified, password_hash, salt, created_at)
		VALUES ($1, $2, FALSE, $3, $4, NOW())
	`
	if _, err := p.pool.Exec(ctx, query, principal.ID, email, hash, salt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewError(domain.ErrCodeConflict, "email already registered")
		}
		return nil, err
	}

	if err := p.redis.Set(ctx, p.signInKey(principal.ID), email, 0).Err(); err != nil {
		return nil, err
	}

	return principal, nil
}

func (p *Provider) SignOut(ctx context.Context, principalID string) error {
	return p.redis.Del(ctx, p.signInKey(principalID)).Err()
}

// Current returns the principal when the provider still holds a live
// sign-in for it, nil otherwise.
func (p *Provider) Current(ctx context.Context, principalID string) (*domain.Principal, error) {
	if err := p.redis.Get(ctx, p.signInKey(principalID)).Err(); err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}

	const query = `SELECT user_id, email, email_verified FROM credentials WHERE user_id = $1`

	var principal domain.Principal
	err := p.pool.QueryRow(ctx, query, principalID).Scan(&principal.ID, &principal.Email, &principal.EmailVerified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &principal, nil
}

func (p *Provider) signInKey(principalID string) string {
	return fmt.Sprintf("idp:signin:%s", principalID)
}

var _ usecase.IdentityProvider = (*Provider)(nil)
