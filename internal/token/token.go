package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/lendhub/backend/domain"
)

// Claims is the JWT payload minted for a granted session. The token is the
// wire form of the session value; the session record in the store remains
// the source of truth for revocation.
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Issue signs a token for the granted session.
func Issue(secret, issuer string, session *domain.Session) (string, error) {
	if session == nil {
		return "", domain.ErrInvalidPayload
	}

	claims := Claims{
		UserID:    session.UserID,
		Role:      string(session.Role),
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			Subject:   session.UserID,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse validates the signature and expiry and returns the claims.
func Parse(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, domain.ErrSessionNotFound
	}
	return claims, nil
}
