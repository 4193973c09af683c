package repository

import (
	"context"
	"errors"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	domainRepo "github.com/SameerAli126/invoicegen-pro/internal/domain/repository"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) domainRepo.ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *entity.Client) error {
	err := r.db.WithContext(ctx).Create(client).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.NewConflictError("a client with this email already exists")
	}
	return err
}

func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	var client entity.Client
	err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &client, err
}

func (r *clientRepository) GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*entity.Client, error) {
	var client entity.Client
	err := r.db.WithContext(ctx).First(&client, "user_id = ? AND email = ?", userID, email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &client, err
}

func (r *clientRepository) Update(ctx context.Context, client *entity.Client) error {
	err := r.db.WithContext(ctx).Save(client).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.NewConflictError("a client with this email already exists")
	}
	return err
}

func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Client{}, "id = ?", id).Error
}

func (r *clientRepository) List(ctx context.Context, userID uuid.UUID, params *domainRepo.ClientFilterParams) ([]entity.Client, int64, error) {
	var clients []entity.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Client{}).
		Where("user_id = ?", userID)

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR company ILIKE ?", pattern, pattern, pattern)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "created_at"
	sortOrder := "DESC"
	switch params.SortBy {
	case "name", "email", "total_invoiced", "created_at":
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order(sortBy + " " + sortOrder).
		Find(&clients).Error

	return clients, total, err
}

func (r *clientRepository) StatsByStatus(ctx context.Context, userID uuid.UUID) ([]domainRepo.ClientStatusStatsResult, error) {
	var results []struct {
		Status        enum.ClientStatus
		Count         int64
		TotalInvoiced int64
		TotalPaid     int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Client{}).
		Select(`status, COUNT(*) as count,
			COALESCE(SUM(total_invoiced), 0) as total_invoiced,
			COALESCE(SUM(total_paid), 0) as total_paid`).
		Where("user_id = ?", userID).
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	stats := make([]domainRepo.ClientStatusStatsResult, 0, len(results))
	for _, row := range results {
		stats = append(stats, domainRepo.ClientStatusStatsResult{
			Status:        row.Status,
			Count:         row.Count,
			TotalInvoiced: row.TotalInvoiced,
			TotalPaid:     row.TotalPaid,
		})
	}
	return stats, nil
}

func (r *clientRepository) WithOutstandingBalance(ctx context.Context, userID uuid.UUID) ([]entity.Client, error) {
	var clients []entity.Client
	err := r.db.WithContext(ctx).Model(&entity.Client{}).
		Where("user_id = ? AND status = ? AND total_invoiced - total_paid > 0",
			userID, enum.ClientStatusActive).
		Order("total_invoiced - total_paid DESC").
		Find(&clients).Error
	return clients, err
}
