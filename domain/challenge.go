package domain

import "time"

// Challenge is the single live one-time code bound to one login attempt.
// Issuing or resending for the same email replaces the previous challenge;
// the old code becomes permanently unverifiable regardless of its own
// remaining window.
type Challenge struct {
	Email    string    `json:"email"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

// ExpiredAt reports whether the challenge is outside its verification
// window at the given instant. A code presented exactly at the window
// boundary is still valid.
func (c *Challenge) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if c == nil {
		return true
	}
	return now.Sub(c.IssuedAt) > ttl
}
