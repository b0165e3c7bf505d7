package domain

import "time"

// ReservationRequest is produced only when admission control accepts an
// attempt; its subsequent lifecycle belongs to the lending workflow.
type ReservationRequest struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	MemberID  string    `json:"member_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateWindow checks the requested reservation span against the policy
// cap. The start must not follow the end, and the span must not exceed
// maxDays.
func ValidateWindow(start, end time.Time, maxDays int) error {
	if start.After(end) {
		return ErrInvalidDateRange
	}
	if end.Sub(start) > time.Duration(maxDays)*24*time.Hour {
		return ErrInvalidDateRange
	}
	return nil
}
