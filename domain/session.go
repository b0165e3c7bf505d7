package domain

import "time"

// Session is the role-scoped session value returned from a successful
// authentication. It is held by the caller and threaded through subsequent
// calls; there is no process-wide session singleton.
type Session struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Role         Role         `json:"role"`
	Capabilities []Capability `json:"capabilities"`
	CreatedAt    time.Time    `json:"created_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Has reports whether the session carries the given capability.
func (s *Session) Has(capability Capability) bool {
	if s == nil {
		return false
	}
	for _, c := range s.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
