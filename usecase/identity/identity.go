package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/repository"
	"github.com/lendhub/backend/usecase"
)

// Outcome is the result of routing an authenticated principal. Either a
// session was granted, or the caller must drive the second factor before
// one can be.
type Outcome struct {
	Session           *domain.Session
	ChallengeRequired bool
}

// UseCase converts a base-authenticated principal into a role-scoped
// session, or fails closed: every failure on the login path invalidates any
// live challenge for the attempt and signs the principal out of the
// provider, so no half-authenticated state survives.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	provider usecase.IdentityProvider
	factor   usecase.SecondFactor

	allowlist  map[string]struct{}
	sessionTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	provider usecase.IdentityProvider,
	factor usecase.SecondFactor,
	allowlist []string,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *UseCase {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allowed := make(map[string]struct{}, len(allowlist))
	for _, email := range allowlist {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowed[email] = struct{}{}
		}
	}

	return &UseCase{
		users:      users,
		sessions:   sessions,
		provider:   provider,
		factor:     factor,
		allowlist:  allowed,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// AuthenticateAndRoute resolves the principal's directory record and routes
// by role. Admins must be allowlisted; members get a ChallengeRequired
// outcome and a freshly issued code, and are granted a session only after
// CompleteChallenge succeeds.
func (uc *UseCase) AuthenticateAndRoute(ctx context.Context, principal *domain.Principal) (*Outcome, error) {
	user, role, err := uc.resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	switch role {
	case domain.RoleAdmin, domain.RoleLibrarian:
		session, err := uc.grant(ctx, user, role)
		if err != nil {
			return nil, uc.failClosed(ctx, principal, err)
		}
		return &Outcome{Session: session}, nil

	case domain.RoleMember:
		if _, err := uc.factor.Issue(ctx, user.Email, user.Name); err != nil {
			return nil, uc.failClosed(ctx, principal, err)
		}
		return &Outcome{ChallengeRequired: true}, nil

	default:
		// resolve guarantees a closed role; reaching here is a logic error.
		return nil, uc.failClosed(ctx, principal, domain.ErrRoleNotFound)
	}
}

// CompleteChallenge finishes a member login: the code is verified and, only
// then, the session granted. Any verification failure is terminal for the
// attempt and tears the half-authenticated state down.
func (uc *UseCase) CompleteChallenge(ctx context.Context, principal *domain.Principal, code string) (*domain.Session, error) {
	user, role, err := uc.resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleMember {
		return nil, uc.failClosed(ctx, principal, domain.ErrAuthorizationDenied)
	}

	if err := uc.factor.Verify(ctx, user.Email, code); err != nil {
		return nil, uc.failClosed(ctx, principal, err)
	}

	session, err := uc.grant(ctx, user, role)
	if err != nil {
		return nil, uc.failClosed(ctx, principal, err)
	}
	return session, nil
}

// Restore re-routes an already-live provider identity, e.g. on app
// relaunch. Role resolution is identical to a fresh login, but a member is
// granted a session without a fresh code: a live provider session is
// treated as already verified.
func (uc *UseCase) Restore(ctx context.Context, principalID string) (*Outcome, error) {
	principal, err := uc.provider.Current(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, domain.ErrSessionNotFound
	}

	user, role, err := uc.resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	session, err := uc.grant(ctx, user, role)
	if err != nil {
		return nil, uc.failClosed(ctx, principal, err)
	}
	return &Outcome{Session: session}, nil
}

// SignOut revokes the user's sessions, invalidates any live challenge and
// signs the principal out of the provider.
func (uc *UseCase) SignOut(ctx context.Context, principal *domain.Principal) error {
	if principal == nil {
		return domain.ErrInvalidPayload
	}
	if err := uc.sessions.DeleteByUser(ctx, principal.ID); err != nil {
		uc.logger.Warn("failed to revoke sessions", zap.Error(err))
	}
	if err := uc.factor.Cancel(ctx, principal.Email); err != nil {
		uc.logger.Warn("failed to cancel challenge", zap.Error(err))
	}
	return uc.provider.SignOut(ctx, principal.ID)
}

// resolve looks the principal up in the directory store and enforces the
// role rules. Failures here already tear the attempt down.
func (uc *UseCase) resolve(ctx context.Context, principal *domain.Principal) (*domain.UserRecord, domain.Role, error) {
	if principal == nil {
		return nil, "", domain.ErrInvalidPayload
	}

	user, err := uc.users.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, "", uc.failClosed(ctx, principal, err)
	}

	role, err := domain.ParseRole(string(user.Role))
	if err != nil {
		return nil, "", uc.failClosed(ctx, principal, err)
	}

	// A role value of admin written straight into storage is not enough:
	// the email must also be allowlisted, or the record is treated as a
	// self-escalation attempt.
	if role == domain.RoleAdmin {
		if _, ok := uc.allowlist[strings.ToLower(user.Email)]; !ok {
			uc.logger.Warn("admin role without allowlisted email",
				zap.String("user_id", user.ID))
			return nil, "", uc.failClosed(ctx, principal, domain.ErrAuthorizationDenied)
		}
	}

	return user, role, nil
}

func (uc *UseCase) grant(ctx context.Context, user *domain.UserRecord, role domain.Role) (*domain.Session, error) {
	now := uc.now()
	session := &domain.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Role:         role,
		Capabilities: role.Capabilities(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(uc.sessionTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	uc.logger.Info("session granted",
		zap.String("user_id", user.ID),
		zap.String("role", string(role)))
	return session, nil
}

// failClosed is the mandatory cleanup side effect of the login sequence:
// invalidate the live challenge and sign the principal out, then surface
// the original failure.
func (uc *UseCase) failClosed(ctx context.Context, principal *domain.Principal, cause error) error {
	if principal != nil {
		if err := uc.factor.Cancel(ctx, principal.Email); err != nil {
			uc.logger.Warn("failed to cancel challenge", zap.Error(err))
		}
		if err := uc.provider.SignOut(ctx, principal.ID); err != nil {
			uc.logger.Warn("failed to sign principal out", zap.Error(err))
		}
	}
	return cause
}
