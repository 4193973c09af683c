package repository

import (
	"context"
	"errors"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	domainRepo "github.com/SameerAli126/invoicegen-pro/internal/domain/repository"
	"github.com/SameerAli126/invoicegen-pro/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	err := r.db.WithContext(ctx).Create(invoice).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.NewConflictError("invoice number already exists")
	}
	return err
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_items.position ASC")
		}).
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Items are replaced wholesale; positions come from the caller
		if err := tx.Delete(&entity.InvoiceItem{}, "invoice_id = ?", invoice.ID).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(invoice).Error
	})
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.InvoiceItem{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Invoice{}, "id = ?", id).Error
	})
}

func (r *invoiceRepository) List(ctx context.Context, userID uuid.UUID, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Where("user_id = ?", userID)

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR client_name ILIKE ? OR client_email ILIKE ?", pattern, pattern, pattern)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.ClientEmail != "" {
		query = query.Where("client_email = ?", params.ClientEmail)
	}

	if params.StartDate != nil {
		query = query.Where("issue_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("issue_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "created_at"
	sortOrder := "DESC"
	switch params.SortBy {
	case "issue_date", "due_date", "total", "invoice_number", "created_at":
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_items.position ASC")
		}).
		Order(sortBy + " " + sortOrder).
		Find(&invoices).Error

	return invoices, total, err
}

// LastNumberForPrefix scans across all users: invoice numbers are globally
// unique, so the allocator has to look at the whole table
func (r *invoiceRepository) LastNumberForPrefix(ctx context.Context, prefix string) (string, error) {
	var number string
	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Select("invoice_number").
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Scan(&number).Error
	return number, err
}

func (r *invoiceRepository) StatsByStatus(ctx context.Context, userID uuid.UUID) ([]domainRepo.StatusStatsResult, error) {
	var results []struct {
		Status enum.InvoiceStatus
		Count  int64
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(total), 0) as total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	stats := make([]domainRepo.StatusStatsResult, 0, len(results))
	for _, row := range results {
		stats = append(stats, domainRepo.StatusStatsResult{
			Status: row.Status,
			Count:  row.Count,
			Total:  row.Total,
		})
	}
	return stats, nil
}

func (r *invoiceRepository) ClientFinancials(ctx context.Context, userID uuid.UUID, clientEmail string) (*domainRepo.ClientFinancialsResult, error) {
	var row struct {
		TotalInvoiced   int64
		TotalPaid       int64
		InvoiceCount    int64
		LastInvoiceDate *time.Time
		LastPaymentDate *time.Time
	}
	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Select(`COALESCE(SUM(total), 0) as total_invoiced,
			COALESCE(SUM(CASE WHEN status = ? THEN total ELSE 0 END), 0) as total_paid,
			COUNT(*) as invoice_count,
			MAX(created_at) as last_invoice_date,
			MAX(paid_at) as last_payment_date`, enum.InvoiceStatusPaid).
		Where("user_id = ? AND client_email = ?", userID, clientEmail).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &domainRepo.ClientFinancialsResult{
		TotalInvoiced:   row.TotalInvoiced,
		TotalPaid:       row.TotalPaid,
		InvoiceCount:    row.InvoiceCount,
		LastInvoiceDate: row.LastInvoiceDate,
		LastPaymentDate: row.LastPaymentDate,
	}, nil
}

func (r *invoiceRepository) PromoteOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Where("user_id = ? AND status IN ? AND due_date < ?",
			userID,
			[]enum.InvoiceStatus{enum.InvoiceStatusSent, enum.InvoiceStatusViewed},
			now).
		Update("status", enum.InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}
