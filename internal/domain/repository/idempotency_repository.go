package repository

import (
	"context"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/google/uuid"
)

// IdempotencyRepository defines the interface for idempotency key storage
type IdempotencyRepository interface {
	Create(ctx context.Context, key *entity.IdempotencyKey) error
	Get(ctx context.Context, userID uuid.UUID, key string) (*entity.IdempotencyKey, error)
	DeleteExpired(ctx context.Context, now time.Time) error
}
