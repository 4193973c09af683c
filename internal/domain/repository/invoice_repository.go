package repository

import (
	"context"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/pkg/pagination"
	"github.com/google/uuid"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)

	// LastNumberForPrefix returns the highest invoice number currently
	// allocated under the given prefix across all users, or "" when the
	// prefix has never been used
	LastNumberForPrefix(ctx context.Context, prefix string) (string, error)

	// StatsByStatus returns per-status counts and total amounts for a
	// user's invoices
	StatsByStatus(ctx context.Context, userID uuid.UUID) ([]StatusStatsResult, error)

	// ClientFinancials aggregates a user's invoices addressed to the given
	// client email
	ClientFinancials(ctx context.Context, userID uuid.UUID, clientEmail string) (*ClientFinancialsResult, error)

	// PromoteOverdue flips sent and viewed invoices whose due date has
	// passed to overdue, returning the number of rows updated
	PromoteOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination  *pagination.PaginationParams
	Search      string
	Status      *enum.InvoiceStatus
	ClientEmail string
	StartDate   *time.Time
	EndDate     *time.Time
	SortBy      string
	SortOrder   string
}

// StatusStatsResult represents aggregate figures for a single invoice status
type StatusStatsResult struct {
	Status enum.InvoiceStatus
	Count  int64
	Total  int64 // cents
}

// ClientFinancialsResult represents the invoice rollups for one client email
type ClientFinancialsResult struct {
	TotalInvoiced   int64 // cents
	TotalPaid       int64 // cents
	InvoiceCount    int64
	LastInvoiceDate *time.Time
	LastPaymentDate *time.Time
}
