package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendhub/backend/domain"
)

func testSession() *domain.Session {
	now := time.Now().Truncate(time.Second)
	return &domain.Session{
		ID:        "sess-1",
		UserID:    "u1",
		Role:      domain.RoleMember,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestIssueAndParse(t *testing.T) {
	session := testSession()

	signed, err := Issue("secret", "lendhub-auth", session)
	require.NoError(t, err)

	claims, err := Parse("secret", signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "lendhub-auth", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signed, err := Issue("secret", "lendhub-auth", testSession())
	require.NoError(t, err)

	_, err = Parse("other-secret", signed)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	session := testSession()
	session.CreatedAt = time.Now().Add(-2 * time.Hour)
	session.ExpiresAt = time.Now().Add(-time.Hour)

	signed, err := Issue("secret", "lendhub-auth", session)
	require.NoError(t, err)

	_, err = Parse("secret", signed)
	assert.Error(t, err)
}

func TestIssueNilSession(t *testing.T) {
	_, err := Issue("secret", "lendhub-auth", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
