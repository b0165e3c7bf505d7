package repository

import (
	"context"

	"github.com/lendhub/backend/domain"
)

// ReservationRepository fronts the lending records for admission control.
// A member's load is the count of unreturned loans plus admitted
// reservations not yet picked up by the lending workflow.
type ReservationRepository interface {
	CountActiveBorrows(ctx context.Context, memberID string) (int, error)

	// Admit re-checks the member's load and inserts the reservation as one
	// atomic admission decision. Two concurrent admissions for the same
	// member are serialized; an admission that would push the load past
	// maxActive fails with domain.ErrMaxBorrowLimitExceeded.
	Admit(ctx context.Context, reservation *domain.ReservationRequest, maxActive int) error
}
