package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/repository"
)

type challengeRepository struct {
	client *redislib.Client
	prefix string
}

// NewChallengeRepository creates a Redis-backed OTP challenge repository.
// One key per email holds the single live challenge; SET replaces any
// previous value, which is exactly the resend semantics, and the key TTL
// evicts codes nobody ever tries.
func NewChallengeRepository(client *redislib.Client) repository.ChallengeRepository {
	return &challengeRepository{
		client: client,
		prefix: "otp:",
	}
}

func (r *challengeRepository) Put(ctx context.Context, challenge *domain.Challenge, ttl time.Duration) error {
	if challenge == nil || challenge.Email == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(challenge)
	if err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return r.client.Set(ctx, r.key(challenge.Email), payload, ttl).Err()
}

func (r *challengeRepository) Get(ctx context.Context, email string) (*domain.Challenge, error) {
	result, err := r.client.Get(ctx, r.key(email)).Result()
	if err != nil {
		if err == redislib.Nil {
			// Absent and evicted-at-expiry look the same to the caller.
			return nil, domain.ErrChallengeExpired
		}
		return nil, err
	}

	var challenge domain.Challenge
	if err := json.Unmarshal([]byte(result), &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}

func (r *challengeRepository) key(email string) string {
	return fmt.Sprintf("%s%s", r.prefix, strings.ToLower(email))
}
