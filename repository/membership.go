package repository

import (
	"context"
	"time"

	"github.com/lendhub/backend/domain"
)

// MembershipRequestRepository owns the plan-request records. Transitions are
// compare-and-set on status: only a pending request may be approved or
// rejected, and exactly one of two concurrent decisions wins.
type MembershipRequestRepository interface {
	// Create inserts a pending request; it fails with
	// domain.ErrPendingRequestExists when the user already has one, enforced
	// at the store so two concurrent creations cannot both succeed.
	Create(ctx context.Context, request *domain.MembershipRequest) error

	GetByID(ctx context.Context, id string) (*domain.MembershipRequest, error)
	ListByUser(ctx context.Context, userID string) ([]domain.MembershipRequest, error)

	// Approve transitions pending -> approved and applies the plan to the
	// user record in the same transaction. A request that is missing or no
	// longer pending fails with domain.ErrRequestNotFound and leaves the
	// user record untouched.
	Approve(ctx context.Context, id string, decidedAt time.Time) (*domain.UserRecord, error)

	// Reject transitions pending -> rejected without touching membership
	// fields. Missing or not-pending fails with domain.ErrRequestNotFound.
	Reject(ctx context.Context, id string, decidedAt time.Time) error
}
