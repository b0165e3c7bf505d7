package repository

import (
	"context"
	"time"

	"github.com/lendhub/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.UserRecord, error)
	Create(ctx context.Context, user *domain.UserRecord) error
	UpdateName(ctx context.Context, id, name string) error
	SetMembership(ctx context.Context, id string, planMonths int, expiry time.Time) (*domain.UserRecord, error)
}
