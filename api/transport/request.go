package transport

// SignUpRequest registers credentials with the identity provider and a
// member record in the directory.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest completes a member login attempt.
type VerifyOTPRequest struct {
	PrincipalID string `json:"principal_id"`
	Code        string `json:"code"`
}

type ResendOTPRequest struct {
	PrincipalID string `json:"principal_id"`
}

type CancelOTPRequest struct {
	PrincipalID string `json:"principal_id"`
}

// RestoreRequest re-enters with an already-live provider identity.
type RestoreRequest struct {
	PrincipalID string `json:"principal_id"`
}

type PlanRequest struct {
	PlanMonths int `json:"plan_months"`
}

// ReservationRequest asks admission for a book over a date window. Dates
// are RFC 3339 date strings (2025-06-01).
type ReservationRequest struct {
	BookID    string `json:"book_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}
