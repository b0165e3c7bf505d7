package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/repository"
	"github.com/lendhub/backend/usecase"
)

// Policy caps a member's concurrent lending load and the reservation window.
type Policy struct {
	MaxActiveBorrows   int
	MaxReservationDays int
}

func (p Policy) normalized() Policy {
	if p.MaxActiveBorrows <= 0 {
		p.MaxActiveBorrows = 5
	}
	if p.MaxReservationDays <= 0 {
		p.MaxReservationDays = 15
	}
	return p
}

// UseCase is the admission control in front of the external lending
// workflow: a reservation exists only if it passed the borrow-limit and
// date-window policy, and the limit re-check plus the insert are one atomic
// decision in the store.
type UseCase struct {
	reservations repository.ReservationRepository
	outbox       usecase.ReservationOutbox
	policy       Policy
	logger       *zap.Logger
	now          func() time.Time
}

func New(reservations repository.ReservationRepository, outbox usecase.ReservationOutbox, policy Policy, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		reservations: reservations,
		outbox:       outbox,
		policy:       policy.normalized(),
		logger:       logger,
		now:          time.Now,
	}
}

// Validate admits or rejects a reservation attempt. The borrow-limit check
// runs first: a member at the limit is rejected regardless of date
// validity. The count observed here is advisory; Admit re-checks it inside
// the store transaction so concurrent attempts cannot over-admit.
func (uc *UseCase) Validate(ctx context.Context, memberID, bookID string, start, end time.Time) (*domain.ReservationRequest, error) {
	count, err := uc.reservations.CountActiveBorrows(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if count >= uc.policy.MaxActiveBorrows {
		return nil, domain.ErrMaxBorrowLimitExceeded
	}

	if err := domain.ValidateWindow(start, end, uc.policy.MaxReservationDays); err != nil {
		return nil, err
	}

	request := &domain.ReservationRequest{
		ID:        uuid.NewString(),
		BookID:    bookID,
		MemberID:  memberID,
		StartDate: start,
		EndDate:   end,
		CreatedAt: uc.now(),
	}
	if err := uc.reservations.Admit(ctx, request, uc.policy.MaxActiveBorrows); err != nil {
		return nil, err
	}

	// Hand off to the lending workflow; admission responsibility ends here.
	if uc.outbox != nil {
		if err := uc.outbox.EnqueueReservation(ctx, request); err != nil {
			uc.logger.Error("failed to enqueue admitted reservation",
				zap.String("reservation_id", request.ID),
				zap.Error(err))
		}
	}

	uc.logger.Info("reservation admitted",
		zap.String("member_id", memberID),
		zap.String("book_id", bookID))
	return request, nil
}
