package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lendhub/backend/api/transport"
	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/pkg/httpcontext"
	membershipUC "github.com/lendhub/backend/usecase/membership"
)

type MembershipHandler struct {
	baseHandler
	uc *membershipUC.UseCase
}

func NewMembershipHandler(uc *membershipUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

type statusResponse struct {
	User   *domain.UserRecord      `json:"user"`
	Status domain.MembershipStatus `json:"status"`
}

// @Summary Derived membership status for the session user
// @Tags membership
// @Router /api/v1/membership/status [get]
func (h *MembershipHandler) Status(ctx *fasthttp.RequestCtx) {
	userID, _, ok := sessionIdentity(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session identity", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, status, err := h.uc.Status(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, statusResponse{User: user, Status: status})
}

// @Summary Request a membership plan for the session user
// @Tags membership
// @Router /api/v1/membership/requests [post]
func (h *MembershipHandler) RequestPlan(ctx *fasthttp.RequestCtx) {
	userID, _, ok := sessionIdentity(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session identity", nil))
		return
	}

	var req transport.PlanRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	request, err := h.uc.RequestPlan(stdCtx, userID, userID, req.PlanMonths)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, request)
}

// @Summary List the session user's plan requests
// @Tags membership
// @Router /api/v1/membership/requests [get]
func (h *MembershipHandler) ListRequests(ctx *fasthttp.RequestCtx) {
	userID, _, ok := sessionIdentity(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session identity", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	requests, err := h.uc.Requests(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, requests)
}

// @Summary Approve a pending plan request
// @Tags membership
// @Router /api/v1/membership/requests/{id}/approve [post]
func (h *MembershipHandler) Approve(ctx *fasthttp.RequestCtx) {
	_, role, ok := sessionIdentity(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session identity", nil))
		return
	}

	requestID, _ := ctx.UserValue("id").(string)
	if requestID == "" {
		h.respondInvalid(ctx, "request id is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Approve(stdCtx, requestID, role)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Reject a pending plan request
// @Tags membership
// @Router /api/v1/membership/requests/{id}/reject [post]
func (h *MembershipHandler) Reject(ctx *fasthttp.RequestCtx) {
	_, role, ok := sessionIdentity(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session identity", nil))
		return
	}

	requestID, _ := ctx.UserValue("id").(string)
	if requestID == "" {
		h.respondInvalid(ctx, "request id is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Reject(stdCtx, requestID, role); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}
