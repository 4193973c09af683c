package repository

import (
	"context"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/pkg/pagination"
	"github.com/google/uuid"
)

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params *ClientFilterParams) ([]entity.Client, int64, error)

	// StatsByStatus returns per-status client counts and summed cached
	// rollups for a user
	StatsByStatus(ctx context.Context, userID uuid.UUID) ([]ClientStatusStatsResult, error)

	// WithOutstandingBalance returns active clients that still owe money,
	// largest balance first
	WithOutstandingBalance(ctx context.Context, userID uuid.UUID) ([]entity.Client, error)
}

// ClientFilterParams contains filtering parameters for client queries
type ClientFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.ClientStatus
	SortBy     string
	SortOrder  string
}

// ClientStatusStatsResult represents one status group: how many clients sit
// in it and their summed cached rollups
type ClientStatusStatsResult struct {
	Status        enum.ClientStatus
	Count         int64
	TotalInvoiced int64 // cents
	TotalPaid     int64 // cents
}
