package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets a wrapped copy of a sentinel match the sentinel itself, so
// errors.Is(WrapError(...ErrChallengeExpired), ErrChallengeExpired) holds.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Failure taxonomy of the authorization engine. Every public operation
// returns one of these (possibly wrapped) rather than a silent no-op.
var (
	// Login sequence.
	ErrUserRecordNotFound  = NewError(ErrCodeUnauthorized, "no directory record for principal")
	ErrRoleNotFound        = NewError(ErrCodeUnauthorized, "stored role is not a recognized role")
	ErrAuthorizationDenied = NewError(ErrCodeForbidden, "email is not allowlisted for the admin role")
	ErrSessionNotFound     = NewError(ErrCodeUnauthorized, "session not found or expired")

	// Second factor.
	ErrChallengeExpired       = NewError(ErrCodeUnauthorized, "challenge expired")
	ErrChallengeMismatch      = NewError(ErrCodeUnauthorized, "challenge code mismatch")
	ErrNotifierDeliveryFailed = NewError(ErrCodeUnavailable, "notifier delivery failed")

	// Membership lifecycle.
	ErrRequestNotFound      = NewError(ErrCodeNotFound, "membership request not found or not pending")
	ErrPendingRequestExists = NewError(ErrCodeConflict, "a pending membership request already exists")
	ErrInvalidPlan          = NewError(ErrCodeInvalid, "membership plan must be 1, 3, 6 or 12 months")

	// Reservation admission.
	ErrMaxBorrowLimitExceeded = NewError(ErrCodeConflict, "active borrow limit reached")
	ErrInvalidDateRange       = NewError(ErrCodeInvalid, "reservation window is invalid")

	// Transport / store.
	ErrDirectoryUnavailable = NewError(ErrCodeUnavailable, "directory store unavailable")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
