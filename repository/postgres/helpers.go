package postgres

import (
	"context"
	"errors"

	"github.com/lendhub/backend/domain"
)

// wrapUnavailable classifies timeouts and cancellations as a directory-store
// availability failure; other errors pass through for the caller to map.
func wrapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.ErrCodeUnavailable, "directory store unavailable", err)
	}
	return err
}
