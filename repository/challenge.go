package repository

import (
	"context"
	"time"

	"github.com/lendhub/backend/domain"
)

// ChallengeRepository stores the one live OTP challenge per email. Put
// unconditionally replaces any previous challenge for the same email.
// Get returns domain.ErrChallengeExpired when no live challenge exists;
// an absent challenge is indistinguishable from one evicted at expiry.
type ChallengeRepository interface {
	Put(ctx context.Context, challenge *domain.Challenge, ttl time.Duration) error
	Get(ctx context.Context, email string) (*domain.Challenge, error)
	Delete(ctx context.Context, email string) error
}
