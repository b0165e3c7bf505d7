package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/repository"
	"github.com/lendhub/backend/usecase"
)

const (
	codeMin  = 100000
	codeSpan = 900000
)

// UseCase implements the single-use, time-bounded second factor for member
// logins. All operations on the same email are serialized so a verify can
// never observe a code that is being replaced mid-check.
type UseCase struct {
	challenges repository.ChallengeRepository
	notifier   usecase.Notifier

	ttl             time.Duration
	notifierTimeout time.Duration
	logger          *zap.Logger
	now             func() time.Time

	locks sync.Map // email -> *sync.Mutex
}

func New(challenges repository.ChallengeRepository, notifier usecase.Notifier, ttl, notifierTimeout time.Duration, logger *zap.Logger) *UseCase {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if notifierTimeout <= 0 {
		notifierTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		challenges:      challenges,
		notifier:        notifier,
		ttl:             ttl,
		notifierTimeout: notifierTimeout,
		logger:          logger,
		now:             time.Now,
	}
}

// Issue generates and stores a fresh challenge for the email and dispatches
// it through the notifier. A delivery failure discards the challenge; no
// session can be granted on an undelivered code.
func (uc *UseCase) Issue(ctx context.Context, email, displayName string) (*domain.Challenge, error) {
	unlock := uc.lock(email)
	defer unlock()

	return uc.issueLocked(ctx, email, displayName)
}

// Resend unconditionally replaces the live challenge with a brand-new code
// and timestamp. The previous code becomes unverifiable immediately, even
// inside its own window.
func (uc *UseCase) Resend(ctx context.Context, email, displayName string) (*domain.Challenge, error) {
	unlock := uc.lock(email)
	defer unlock()

	return uc.issueLocked(ctx, email, displayName)
}

// Verify succeeds iff the entered code matches the live challenge and the
// challenge is still inside its window. Expired, mismatched and successful
// verifications all destroy the challenge: the attempt is terminal either way.
func (uc *UseCase) Verify(ctx context.Context, email, entered string) error {
	unlock := uc.lock(email)
	defer unlock()

	challenge, err := uc.challenges.Get(ctx, email)
	if err != nil {
		return err
	}

	defer func() {
		if err := uc.challenges.Delete(ctx, email); err != nil {
			uc.logger.Warn("failed to discard challenge", zap.Error(err))
		}
	}()

	if challenge.ExpiredAt(uc.now(), uc.ttl) {
		return domain.ErrChallengeExpired
	}
	if challenge.Code != entered {
		return domain.ErrChallengeMismatch
	}
	return nil
}

// Cancel invalidates the live challenge for an abandoned login attempt. It
// is not valid to leave a stale challenge answerable later.
func (uc *UseCase) Cancel(ctx context.Context, email string) error {
	unlock := uc.lock(email)
	defer unlock()

	return uc.challenges.Delete(ctx, email)
}

func (uc *UseCase) issueLocked(ctx context.Context, email, displayName string) (*domain.Challenge, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	challenge := &domain.Challenge{
		Email:    email,
		Code:     code,
		IssuedAt: uc.now(),
	}

	if err := uc.challenges.Put(ctx, challenge, uc.ttl); err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, uc.notifierTimeout)
	defer cancel()

	if err := uc.notifier.SendOTP(sendCtx, email, code, displayName); err != nil {
		if delErr := uc.challenges.Delete(ctx, email); delErr != nil {
			uc.logger.Warn("failed to discard undelivered challenge", zap.Error(delErr))
		}
		if errors.Is(err, domain.ErrNotifierDeliveryFailed) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "notifier delivery failed", err)
	}

	uc.logger.Info("challenge issued", zap.String("email", email))
	return challenge, nil
}

func (uc *UseCase) lock(email string) func() {
	value, _ := uc.locks.LoadOrStore(email, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// generateCode draws a code uniformly at random from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

var _ usecase.SecondFactor = (*UseCase)(nil)
