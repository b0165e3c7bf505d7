package usecase

import (
	"context"

	"github.com/lendhub/backend/domain"
)

// IdentityProvider abstracts the external service that verifies base
// credentials. The engine only consumes principals; it never sees passwords.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*domain.Principal, error)
	SignUp(ctx context.Context, email, password string) (*domain.Principal, error)
	SignOut(ctx context.Context, principalID string) error
	// Current returns the live principal for an already signed-in identity,
	// or nil when the provider no longer holds one.
	Current(ctx context.Context, principalID string) (*domain.Principal, error)
}

// Notifier delivers one-time codes out of band. A delivery failure is
// terminal for that issuance attempt; the engine never retries internally.
type Notifier interface {
	SendOTP(ctx context.Context, email, code, displayName string) error
}

// SecondFactor is the slice of the OTP component the identity gate and the
// auth surface drive.
type SecondFactor interface {
	Issue(ctx context.Context, email, displayName string) (*domain.Challenge, error)
	Resend(ctx context.Context, email, displayName string) (*domain.Challenge, error)
	Verify(ctx context.Context, email, code string) error
	Cancel(ctx context.Context, email string) error
}

// ReservationOutbox hands admitted reservations to the external lending
// workflow; admission responsibility ends at the enqueue.
type ReservationOutbox interface {
	EnqueueReservation(ctx context.Context, reservation *domain.ReservationRequest) error
}
