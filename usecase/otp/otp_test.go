package otp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendhub/backend/domain"
)

type memChallenges struct {
	mu    sync.Mutex
	items map[string]domain.Challenge
}

func newMemChallenges() *memChallenges {
	return &memChallenges{items: make(map[string]domain.Challenge)}
}

func (m *memChallenges) Put(_ context.Context, challenge *domain.Challenge, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[challenge.Email] = *challenge
	return nil
}

func (m *memChallenges) Get(_ context.Context, email string) (*domain.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	challenge, ok := m.items[email]
	if !ok {
		return nil, domain.ErrChallengeExpired
	}
	return &challenge, nil
}

func (m *memChallenges) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, email)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeNotifier) SendOTP(_ context.Context, email, code, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.ErrNotifierDeliveryFailed
	}
	f.sent = append(f.sent, code)
	return nil
}

func newTestUseCase(t *testing.T) (*UseCase, *memChallenges, *fakeNotifier, *time.Time) {
	t.Helper()
	store := newMemChallenges()
	notifier := &fakeNotifier{}
	uc := New(store, notifier, 300*time.Second, time.Second, nil)

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }
	return uc, store, notifier, &now
}

func TestIssueAndVerify(t *testing.T) {
	uc, _, notifier, _ := newTestUseCase(t)
	ctx := context.Background()

	challenge, err := uc.Issue(ctx, "m@example.com", "Mona")
	require.NoError(t, err)
	require.Len(t, challenge.Code, 6)
	assert.Equal(t, []string{challenge.Code}, notifier.sent)

	require.NoError(t, uc.Verify(ctx, "m@example.com", challenge.Code))
}

func TestVerifyIsSingleUse(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	challenge, err := uc.Issue(ctx, "m@example.com", "Mona")
	require.NoError(t, err)

	require.NoError(t, uc.Verify(ctx, "m@example.com", challenge.Code))
	assert.ErrorIs(t, uc.Verify(ctx, "m@example.com", challenge.Code), domain.ErrChallengeExpired)
}

func TestVerifyMismatchDestroysChallenge(t *testing.T) {
	uc, store, _, _ := newTestUseCase(t)
	ctx := context.Background()

	challenge, err := uc.Issue(ctx, "m@example.com", "Mona")
	require.NoError(t, err)

	assert.ErrorIs(t, uc.Verify(ctx, "m@example.com", "000000"), domain.ErrChallengeMismatch)

	// a failed attempt is terminal; the right code no longer works
	_, err = store.Get(ctx, "m@example.com")
	assert.ErrorIs(t, err, domain.ErrChallengeExpired)
	assert.ErrorIs(t, uc.Verify(ctx, "m@example.com", challenge.Code), domain.ErrChallengeExpired)
}

func TestVerifyWindowBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("valid at exactly 300s", func(t *testing.T) {
		uc, _, _, now := newTestUseCase(t)
		challenge, err := uc.Issue(ctx, "m@example.com", "Mona")
		require.NoError(t, err)

		*now = now.Add(300 * time.Second)
		assert.NoError(t, uc.Verify(ctx, "m@example.com", challenge.Code))
	})

	t.Run("expired past 300s", func(t *testing.T) {
		uc, _, _, now := newTestUseCase(t)
		challenge, err := uc.Issue(ctx, "m@example.com", "Mona")
		require.NoError(t, err)

		*now = now.Add(301 * time.Second)
		assert.ErrorIs(t, uc.Verify(ctx, "m@example.com", challenge.Code), domain.ErrChallengeExpired)
	})
}

func TestResendReplacesLiveCode(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	first, err := uc.Issue(ctx, "m@example.com", "Mona")
	require.NoError(t, err)

	second, err := uc.Resend(ctx, "m@example.com", "Mona")
	require.NoError(t, err)

	if first.Code == second.Code {
		t.Skip("codes collided; replacement is unobservable this run")
	}

	// the old code is dead even though its own window has not elapsed
	assert.ErrorIs(t, uc.Verify(ctx, "m@example.com", first.Code), domain.ErrChallengeMismatch)
}

func TestDeliveryFailureDiscardsChallenge(t *testing.T) {
	uc, store, notifier, _ := newTestUseCase(t)
	notifier.fail = true
	ctx := context.Background()

	_, err := uc.Issue(ctx, "m@example.com", "Mona")
	assert.ErrorIs(t, err, domain.ErrNotifierDeliveryFailed)

	_, err = store.Get(ctx, "m@example.com")
	assert.ErrorIs(t, err, domain.ErrChallengeExpired)
}

func TestCancelInvalidatesChallenge(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	challenge, err := uc.Issue(ctx, "m@example.com", "Mona")
	require.NoError(t, err)

	require.NoError(t, uc.Cancel(ctx, "m@example.com"))
	assert.ErrorIs(t, uc.Verify(ctx, "m@example.com", challenge.Code), domain.ErrChallengeExpired)
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
