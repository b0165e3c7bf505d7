package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/repository"
)

// UseCase runs the membership-plan request workflow and derives the
// expiry-based status. Requests are created by members for themselves and
// decided by librarians or admins; every status transition is a
// compare-and-set from pending.
type UseCase struct {
	users    repository.UserRepository
	requests repository.MembershipRequestRepository
	logger   *zap.Logger
	now      func() time.Time
}

func New(users repository.UserRepository, requests repository.MembershipRequestRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		requests: requests,
		logger:   logger,
		now:      time.Now,
	}
}

// RequestPlan creates a pending plan request. Only a user acting on their
// own record may request, and the store refuses a second pending request
// for the same user.
func (uc *UseCase) RequestPlan(ctx context.Context, actorID, userID string, planMonths int) (*domain.MembershipRequest, error) {
	if actorID != userID {
		return nil, domain.ErrAuthorizationDenied
	}
	if !domain.ValidPlanMonths(planMonths) {
		return nil, domain.ErrInvalidPlan
	}

	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	request := &domain.MembershipRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		PlanMonths:  planMonths,
		Status:      domain.RequestPending,
		RequestedAt: uc.now(),
	}
	if err := uc.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	uc.logger.Info("membership plan requested",
		zap.String("user_id", userID),
		zap.Int("plan_months", planMonths))
	return request, nil
}

// Approve grants the plan: expiry is the approval instant plus the plan's
// calendar months. A request that is missing or already decided fails with
// ErrRequestNotFound; a second approve never re-applies.
func (uc *UseCase) Approve(ctx context.Context, requestID string, actorRole domain.Role) (*domain.UserRecord, error) {
	if !actorRole.CanDecideMembership() {
		return nil, domain.ErrAuthorizationDenied
	}

	user, err := uc.requests.Approve(ctx, requestID, uc.now())
	if err != nil {
		return nil, err
	}

	uc.logger.Info("membership request approved",
		zap.String("request_id", requestID),
		zap.String("user_id", user.ID),
		zap.Int("plan_months", user.MembershipPlan))
	return user, nil
}

// Reject terminates the request without touching membership fields.
func (uc *UseCase) Reject(ctx context.Context, requestID string, actorRole domain.Role) error {
	if !actorRole.CanDecideMembership() {
		return domain.ErrAuthorizationDenied
	}

	if err := uc.requests.Reject(ctx, requestID, uc.now()); err != nil {
		return err
	}

	uc.logger.Info("membership request rejected", zap.String("request_id", requestID))
	return nil
}

// Status reads the user and derives the membership status at call time.
// The derived value must not be cached beyond a single read.
func (uc *UseCase) Status(ctx context.Context, userID string) (*domain.UserRecord, domain.MembershipStatus, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	return user, user.MembershipStatusAt(uc.now()), nil
}

// Requests lists a user's own plan requests, newest first.
func (uc *UseCase) Requests(ctx context.Context, userID string) ([]domain.MembershipRequest, error) {
	return uc.requests.ListByUser(ctx, userID)
}
