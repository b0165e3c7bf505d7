package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidPlanMonths(t *testing.T) {
	for _, months := range []int{1, 3, 6, 12} {
		assert.True(t, ValidPlanMonths(months), "%d months", months)
	}
	for _, months := range []int{0, -1, 2, 4, 5, 7, 13, 24} {
		assert.False(t, ValidPlanMonths(months), "%d months", months)
	}
}

func TestMembershipExpiry(t *testing.T) {
	approved := time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)

	assert.Equal(t,
		time.Date(2025, time.February, 15, 9, 30, 0, 0, time.UTC),
		MembershipExpiry(approved, 1))
	assert.Equal(t,
		time.Date(2025, time.July, 15, 9, 30, 0, 0, time.UTC),
		MembershipExpiry(approved, 6))
	assert.Equal(t,
		time.Date(2026, time.January, 15, 9, 30, 0, 0, time.UTC),
		MembershipExpiry(approved, 12))
}

// Calendar arithmetic, not 30-day blocks: a one-month plan approved on
// January 31 normalizes per time.AddDate.
func TestMembershipExpiryMonthEnd(t *testing.T) {
	approved := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		MembershipExpiry(approved, 1))
}
