package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/internal/token"
	"github.com/lendhub/backend/repository"
)

// Header names the auth middleware injects for downstream handlers.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderSessionID = "X-Session-ID"
)

// SessionAuth validates the bearer token and confirms the session it names
// is still live, so a signed-out token stops working before its expiry.
func SessionAuth(secret string, sessions repository.SessionRepository, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims, err := token.Parse(secret, tokenString)
			if err != nil {
				logger.Warn("invalid session token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			if sessions != nil {
				if _, err := sessions.Get(ctx, claims.SessionID); err != nil {
					if err != domain.ErrSessionNotFound {
						logger.Warn("session lookup failed", zap.Error(err))
					}
					ctx.SetStatusCode(fasthttp.StatusUnauthorized)
					return
				}
			}

			ctx.Request.Header.Set(HeaderUserID, claims.UserID)
			ctx.Request.Header.Set(HeaderUserRole, claims.Role)
			ctx.Request.Header.Set(HeaderSessionID, claims.SessionID)

			next(ctx)
		}
	}
}

// RequireRole rejects requests whose session role is outside the permitted set.
func RequireRole(roles ...domain.Role) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			role, err := domain.ParseRole(string(ctx.Request.Header.Peek(HeaderUserRole)))
			if err != nil {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next(ctx)
					return
				}
			}
			ctx.SetStatusCode(fasthttp.StatusForbidden)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
