package repository

import (
	"context"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error

	// IncrementInvoiceCount bumps the monthly usage counter atomically so
	// concurrent invoice creations never lose an increment
	IncrementInvoiceCount(ctx context.Context, id uuid.UUID) error
}
