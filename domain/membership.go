package domain

import "time"

// RequestStatus is the one-shot state of a membership-plan request. Only
// pending requests may transition; the status is write-once afterwards.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// MembershipRequest is a member's request for a paid plan, awaiting a
// librarian or admin decision.
type MembershipRequest struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	PlanMonths  int           `json:"plan_months"`
	Status      RequestStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`
}

// ValidPlanMonths reports whether the requested duration is a sellable plan.
func ValidPlanMonths(months int) bool {
	switch months {
	case 1, 3, 6, 12:
		return true
	default:
		return false
	}
}

// MembershipExpiry computes the expiry instant for a plan approved at the
// given instant. Calendar-month arithmetic, not fixed 30-day blocks.
func MembershipExpiry(approvedAt time.Time, planMonths int) time.Time {
	return approvedAt.AddDate(0, planMonths, 0)
}
