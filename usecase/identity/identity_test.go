package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendhub/backend/domain"
)

type fakeUsers struct {
	records map[string]*domain.UserRecord
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.UserRecord, error) {
	if user, ok := f.records[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, domain.ErrUserRecordNotFound
}

func (f *fakeUsers) Create(_ context.Context, user *domain.UserRecord) error {
	f.records[user.ID] = user
	return nil
}

func (f *fakeUsers) UpdateName(_ context.Context, id, name string) error {
	user, ok := f.records[id]
	if !ok {
		return domain.ErrUserRecordNotFound
	}
	user.Name = name
	return nil
}

func (f *fakeUsers) SetMembership(_ context.Context, id string, planMonths int, expiry time.Time) (*domain.UserRecord, error) {
	user, ok := f.records[id]
	if !ok {
		return nil, domain.ErrUserRecordNotFound
	}
	user.MembershipPlan = planMonths
	user.MembershipExpiry = &expiry
	return user, nil
}

type fakeSessions struct {
	mu    sync.Mutex
	saved map[string]*domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: make(map[string]*domain.Session)}
}

func (f *fakeSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.saved[id]; ok {
		return session, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (f *fakeSessions) Save(_ context.Context, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[session.ID] = session
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, id)
	return nil
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, session := range f.saved {
		if session.UserID == userID {
			delete(f.saved, id)
		}
	}
	return nil
}

type fakeProvider struct {
	live      map[string]*domain.Principal
	signedOut []string
}

func newFakeProvider(principals ...*domain.Principal) *fakeProvider {
	live := make(map[string]*domain.Principal)
	for _, p := range principals {
		live[p.ID] = p
	}
	return &fakeProvider{live: live}
}

func (f *fakeProvider) SignIn(_ context.Context, email, _ string) (*domain.Principal, error) {
	for _, p := range f.live {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid credentials")
}

func (f *fakeProvider) SignUp(_ context.Context, email, _ string) (*domain.Principal, error) {
	p := &domain.Principal{ID: email, Email: email}
	f.live[p.ID] = p
	return p, nil
}

func (f *fakeProvider) SignOut(_ context.Context, principalID string) error {
	f.signedOut = append(f.signedOut, principalID)
	delete(f.live, principalID)
	return nil
}

func (f *fakeProvider) Current(_ context.Context, principalID string) (*domain.Principal, error) {
	if p, ok := f.live[principalID]; ok {
		return p, nil
	}
	return nil, nil
}

type fakeFactor struct {
	issued    []string
	cancelled []string
	verifyErr error
}

func (f *fakeFactor) Issue(_ context.Context, email, _ string) (*domain.Challenge, error) {
	f.issued = append(f.issued, email)
	return &domain.Challenge{Email: email, Code: "123456"}, nil
}

func (f *fakeFactor) Resend(ctx context.Context, email, displayName string) (*domain.Challenge, error) {
	return f.Issue(ctx, email, displayName)
}

func (f *fakeFactor) Verify(_ context.Context, _, _ string) error {
	return f.verifyErr
}

func (f *fakeFactor) Cancel(_ context.Context, email string) error {
	f.cancelled = append(f.cancelled, email)
	return nil
}

type gateFixture struct {
	uc       *UseCase
	users    *fakeUsers
	sessions *fakeSessions
	provider *fakeProvider
	factor   *fakeFactor
}

func newGateFixture(allowlist []string, records ...*domain.UserRecord) *gateFixture {
	users := &fakeUsers{records: make(map[string]*domain.UserRecord)}
	principals := make([]*domain.Principal, 0, len(records))
	for _, record := range records {
		users.records[record.ID] = record
		principals = append(principals, &domain.Principal{ID: record.ID, Email: record.Email})
	}

	sessions := newFakeSessions()
	provider := newFakeProvider(principals...)
	factor := &fakeFactor{}

	return &gateFixture{
		uc:       New(users, sessions, provider, factor, allowlist, time.Hour, nil),
		users:    users,
		sessions: sessions,
		provider: provider,
		factor:   factor,
	}
}

func principalFor(record *domain.UserRecord) *domain.Principal {
	return &domain.Principal{ID: record.ID, Email: record.Email}
}

func TestAdminLoginRequiresAllowlist(t *testing.T) {
	ctx := context.Background()
	admin := &domain.UserRecord{ID: "u1", Email: "root@lendhub.io", Role: domain.RoleAdmin}

	t.Run("allowlisted admin gets a session without OTP", func(t *testing.T) {
		fx := newGateFixture([]string{"Root@LendHub.io"}, admin)

		outcome, err := fx.uc.AuthenticateAndRoute(ctx, principalFor(admin))
		require.NoError(t, err)
		require.NotNil(t, outcome.Session)
		assert.False(t, outcome.ChallengeRequired)
		assert.Equal(t, domain.RoleAdmin, outcome.Session.Role)
		assert.True(t, outcome.Session.Has(domain.CapManageUsers))
		assert.Empty(t, fx.factor.issued)
	})

	t.Run("stored admin role without allowlisted email is denied", func(t *testing.T) {
		fx := newGateFixture(nil, admin)

		_, err := fx.uc.AuthenticateAndRoute(ctx, principalFor(admin))
		assert.ErrorIs(t, err, domain.ErrAuthorizationDenied)
		// the attempt is torn down, not left half-authenticated
		assert.Contains(t, fx.provider.signedOut, admin.ID)
	})
}

func TestLoginFailsClosed(t *testing.T) {
	ctx := context.Background()

	t.Run("no directory record", func(t *testing.T) {
		fx := newGateFixture(nil)
		ghost := &domain.Principal{ID: "ghost", Email: "ghost@lendhub.io"}
		fx.provider.live[ghost.ID] = ghost

		_, err := fx.uc.AuthenticateAndRoute(ctx, ghost)
		assert.ErrorIs(t, err, domain.ErrUserRecordNotFound)
		assert.Contains(t, fx.provider.signedOut, "ghost")
		assert.Contains(t, fx.factor.cancelled, "ghost@lendhub.io")
	})

	t.Run("unrecognized stored role", func(t *testing.T) {
		odd := &domain.UserRecord{ID: "u2", Email: "odd@lendhub.io", Role: "superuser"}
		fx := newGateFixture(nil, odd)

		_, err := fx.uc.AuthenticateAndRoute(ctx, principalFor(odd))
		assert.ErrorIs(t, err, domain.ErrRoleNotFound)
		assert.Contains(t, fx.provider.signedOut, odd.ID)
	})
}

func TestMemberLoginRoutesThroughChallenge(t *testing.T) {
	ctx := context.Background()
	member := &domain.UserRecord{ID: "m1", Email: "mona@lendhub.io", Name: "Mona", Role: domain.RoleMember}
	fx := newGateFixture(nil, member)

	outcome, err := fx.uc.AuthenticateAndRoute(ctx, principalFor(member))
	require.NoError(t, err)
	assert.True(t, outcome.ChallengeRequired)
	assert.Nil(t, outcome.Session)
	assert.Equal(t, []string{member.Email}, fx.factor.issued)

	session, err := fx.uc.CompleteChallenge(ctx, principalFor(member), "123456")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, session.Role)
	assert.True(t, session.Has(domain.CapReserveBooks))
}

func TestCompleteChallengeFailureTearsDown(t *testing.T) {
	ctx := context.Background()
	member := &domain.UserRecord{ID: "m1", Email: "mona@lendhub.io", Role: domain.RoleMember}
	fx := newGateFixture(nil, member)
	fx.factor.verifyErr = domain.ErrChallengeMismatch

	_, err := fx.uc.CompleteChallenge(ctx, principalFor(member), "000000")
	assert.ErrorIs(t, err, domain.ErrChallengeMismatch)
	assert.Contains(t, fx.provider.signedOut, member.ID)
	assert.Contains(t, fx.factor.cancelled, member.Email)
}

func TestCompleteChallengeRejectsNonMembers(t *testing.T) {
	ctx := context.Background()
	librarian := &domain.UserRecord{ID: "l1", Email: "lib@lendhub.io", Role: domain.RoleLibrarian}
	fx := newGateFixture(nil, librarian)

	_, err := fx.uc.CompleteChallenge(ctx, principalFor(librarian), "123456")
	assert.ErrorIs(t, err, domain.ErrAuthorizationDenied)
}

func TestRestoreGrantsMemberWithoutChallenge(t *testing.T) {
	ctx := context.Background()
	member := &domain.UserRecord{ID: "m1", Email: "mona@lendhub.io", Role: domain.RoleMember}
	fx := newGateFixture(nil, member)

	// a live provider identity is treated as already verified
	outcome, err := fx.uc.Restore(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, outcome.Session)
	assert.Equal(t, domain.RoleMember, outcome.Session.Role)
	assert.Empty(t, fx.factor.issued)
}

func TestRestoreWithoutLiveIdentity(t *testing.T) {
	ctx := context.Background()
	fx := newGateFixture(nil)

	_, err := fx.uc.Restore(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSignOutRevokesEverything(t *testing.T) {
	ctx := context.Background()
	member := &domain.UserRecord{ID: "m1", Email: "mona@lendhub.io", Role: domain.RoleMember}
	fx := newGateFixture(nil, member)

	session, err := fx.uc.CompleteChallenge(ctx, principalFor(member), "123456")
	require.NoError(t, err)

	require.NoError(t, fx.uc.SignOut(ctx, principalFor(member)))
	_, err = fx.sessions.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Contains(t, fx.factor.cancelled, member.Email)
	assert.Contains(t, fx.provider.signedOut, member.ID)
}
