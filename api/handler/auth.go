package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lendhub/backend/api/transport"
	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/internal/token"
	"github.com/lendhub/backend/pkg/httpcontext"
	"github.com/lendhub/backend/repository"
	"github.com/lendhub/backend/usecase"
	identityUC "github.com/lendhub/backend/usecase/identity"
)

type AuthHandler struct {
	baseHandler
	gate     *identityUC.UseCase
	factor   usecase.SecondFactor
	provider usecase.IdentityProvider
	users    repository.UserRepository

	jwtSecret string
	jwtIssuer string
}

func NewAuthHandler(
	gate *identityUC.UseCase,
	factor usecase.SecondFactor,
	provider usecase.IdentityProvider,
	users repository.UserRepository,
	adapter *httpcontext.Adapter,
	logger *zap.Logger,
	jwtSecret, jwtIssuer string,
) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		gate:        gate,
		factor:      factor,
		provider:    provider,
		users:       users,
		jwtSecret:   jwtSecret,
		jwtIssuer:   jwtIssuer,
	}
}

type sessionResponse struct {
	Session *domain.Session `json:"session"`
	Token   string          `json:"token"`
}

type challengeResponse struct {
	ChallengeRequired bool   `json:"challenge_required"`
	PrincipalID       string `json:"principal_id"`
}

// @Summary Register credentials and a member record
// @Tags auth
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) SignUp(ctx *fasthttp.RequestCtx) {
	var req transport.SignUpRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Email == "" || req.Password == "" {
		h.respondInvalid(ctx, "email and password are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, err := h.provider.SignUp(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	user := &domain.UserRecord{
		ID:    principal.ID,
		Email: principal.Email,
		Name:  req.Name,
		Role:  domain.RoleMember,
	}
	if err := h.users.Create(stdCtx, user); err != nil {
		// No provider identity may survive without a directory record.
		_ = h.provider.SignOut(stdCtx, principal.ID)
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusCreated, user)
}

// @Summary Authenticate and route by role
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Email == "" || req.Password == "" {
		h.respondInvalid(ctx, "email and password are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, err := h.provider.SignIn(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	outcome, err := h.gate.AuthenticateAndRoute(stdCtx, principal)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if outcome.ChallengeRequired {
		h.respondSuccess(ctx, http.StatusAccepted, challengeResponse{
			ChallengeRequired: true,
			PrincipalID:       principal.ID,
		})
		return
	}

	h.respondSession(ctx, outcome.Session)
}

// @Summary Verify the one-time code and grant the member session
// @Tags auth
// @Router /api/v1/auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(ctx *fasthttp.RequestCtx) {
	var req transport.VerifyOTPRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.PrincipalID == "" || req.Code == "" {
		h.respondInvalid(ctx, "principal_id and code are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, err := h.currentPrincipal(stdCtx, req.PrincipalID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	session, err := h.gate.CompleteChallenge(stdCtx, principal, req.Code)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSession(ctx, session)
}

// @Summary Replace the live code for an in-progress login
// @Tags auth
// @Router /api/v1/auth/otp/resend [post]
func (h *AuthHandler) ResendOTP(ctx *fasthttp.RequestCtx) {
	var req transport.ResendOTPRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.PrincipalID == "" {
		h.respondInvalid(ctx, "principal_id is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, err := h.currentPrincipal(stdCtx, req.PrincipalID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	user, err := h.users.GetByID(stdCtx, principal.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if _, err := h.factor.Resend(stdCtx, user.Email, user.Name); err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusAccepted, challengeResponse{
		ChallengeRequired: true,
		PrincipalID:       principal.ID,
	})
}

// @Summary Abandon the in-progress login attempt
// @Tags auth
// @Router /api/v1/auth/otp/cancel [post]
func (h *AuthHandler) CancelOTP(ctx *fasthttp.RequestCtx) {
	var req transport.CancelOTPRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.PrincipalID == "" {
		h.respondInvalid(ctx, "principal_id is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, err := h.currentPrincipal(stdCtx, req.PrincipalID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if err := h.gate.SignOut(stdCtx, principal); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Restore a session for a live provider identity
// @Tags auth
// @Router /api/v1/auth/restore [post]
func (h *AuthHandler) Restore(ctx *fasthttp.RequestCtx) {
	var req transport.RestoreRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.PrincipalID == "" {
		h.respondInvalid(ctx, "principal_id is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	outcome, err := h.gate.Restore(stdCtx, req.PrincipalID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSession(ctx, outcome.Session)
}

// @Summary Sign out
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	userID, _, ok := sessionIdentity(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session identity", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, err := h.currentPrincipal(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if err := h.gate.SignOut(stdCtx, principal); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

func (h *AuthHandler) respondSession(ctx *fasthttp.RequestCtx, session *domain.Session) {
	signed, err := token.Issue(h.jwtSecret, h.jwtIssuer, session)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, sessionResponse{
		Session: session,
		Token:   signed,
	})
}

func (h *AuthHandler) currentPrincipal(ctx context.Context, principalID string) (*domain.Principal, error) {
	principal, err := h.provider.Current(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, domain.ErrSessionNotFound
	}
	return principal, nil
}
