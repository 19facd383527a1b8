package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
)

// IdempotencyRepository stores the responses of replayable POSTs, keyed by
// (user, Idempotency-Key).
type IdempotencyRepository interface {
	// Find returns the stored response, or nil when the user never used key
	Find(ctx context.Context, userID uuid.UUID, key string) (*entity.IdempotencyKey, error)
	// Save stores a response, replacing an expired entry under the same key
	Save(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes expired keys and reports how many were removed
	DeleteExpired(ctx context.Context) (int64, error)
}
