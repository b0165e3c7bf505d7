package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/lendhub/backend/api/handler"
	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/internal/middleware"
)

type Handlers struct {
	Auth        *apiHandler.AuthHandler
	Membership  *apiHandler.MembershipHandler
	Reservation *apiHandler.ReservationHandler
	Health      *apiHandler.HealthHandler
}

func New(handlers Handlers, auth func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Login sequence: signup, credential check, then the member second factor.
	r.POST("/api/v1/auth/signup", handlers.Auth.SignUp)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/otp/verify", handlers.Auth.VerifyOTP)
	r.POST("/api/v1/auth/otp/resend", handlers.Auth.ResendOTP)
	r.POST("/api/v1/auth/otp/cancel", handlers.Auth.CancelOTP)
	r.POST("/api/v1/auth/restore", handlers.Auth.Restore)

	// Protected routes
	r.POST("/api/v1/auth/logout", auth(handlers.Auth.Logout))

	r.GET("/api/v1/membership/status", auth(handlers.Membership.Status))
	r.GET("/api/v1/membership/requests", auth(handlers.Membership.ListRequests))
	r.POST("/api/v1/membership/requests", auth(handlers.Membership.RequestPlan))

	decide := middleware.RequireRole(domain.RoleLibrarian, domain.RoleAdmin)
	r.POST("/api/v1/membership/requests/{id}/approve", auth(decide(handlers.Membership.Approve)))
	r.POST("/api/v1/membership/requests/{id}/reject", auth(decide(handlers.Membership.Reject)))

	memberOnly := middleware.RequireRole(domain.RoleMember)
	r.POST("/api/v1/reservations", auth(memberOnly(handlers.Reservation.Create)))

	return r
}
