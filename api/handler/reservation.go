package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lendhub/backend/api/transport"
	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/pkg/httpcontext"
	reservationUC "github.com/lendhub/backend/usecase/reservation"
)

const dateLayout = "2006-01-02"

type ReservationHandler struct {
	baseHandler
	uc *reservationUC.UseCase
}

func NewReservationHandler(uc *reservationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Request admission for a book reservation
// @Tags reservations
// @Router /api/v1/reservations [post]
func (h *ReservationHandler) Create(ctx *fasthttp.RequestCtx) {
	userID, _, ok := sessionIdentity(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing session identity", nil))
		return
	}

	var req transport.ReservationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.BookID == "" {
		h.respondInvalid(ctx, "book_id, start_date and end_date are required")
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		h.respondInvalid(ctx, "start_date must be a YYYY-MM-DD date")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		h.respondInvalid(ctx, "end_date must be a YYYY-MM-DD date")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	reservation, err := h.uc.Validate(stdCtx, userID, req.BookID, start, end)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, reservation)
}
