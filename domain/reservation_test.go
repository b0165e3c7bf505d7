package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateWindow(t *testing.T) {
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"single day", base, base, false},
		{"full window", base, base.AddDate(0, 0, 15), false},
		{"one day over", base, base.AddDate(0, 0, 16), true},
		{"start after end", base.AddDate(0, 0, 1), base, true},
		{"far over", base, base.AddDate(0, 1, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.start, tt.end, 15)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDateRange)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChallengeExpiredAt(t *testing.T) {
	issued := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	challenge := &Challenge{Email: "m@example.com", Code: "123456", IssuedAt: issued}
	ttl := 300 * time.Second

	assert.False(t, challenge.ExpiredAt(issued.Add(299*time.Second), ttl))
	// the boundary instant is still inside the window
	assert.False(t, challenge.ExpiredAt(issued.Add(300*time.Second), ttl))
	assert.True(t, challenge.ExpiredAt(issued.Add(301*time.Second), ttl))

	var nilChallenge *Challenge
	assert.True(t, nilChallenge.ExpiredAt(issued, ttl))
}
