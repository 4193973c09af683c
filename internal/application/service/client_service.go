package service

import (
	"context"
	"strings"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/repository"
	"github.com/SameerAli126/invoicegen-pro/pkg/apperror"
	"github.com/SameerAli126/invoicegen-pro/pkg/pagination"
	"github.com/google/uuid"
)

// ClientService handles client-related operations
type ClientService struct {
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository, invoiceRepo repository.InvoiceRepository) *ClientService {
	return &ClientService{
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
	}
}

// CreateClientInput represents the input for creating a client
type CreateClientInput struct {
	UserID  uuid.UUID
	Name    string
	Email   string
	Phone   *string
	Company *string
	Address *string
	Notes   *string
}

// CreateClient creates a new client. Each user can have at most one client
// per email address.
func (s *ClientService) CreateClient(ctx context.Context, input *CreateClientInput) (*entity.Client, error) {
	if fieldErrors := validateClientInput(input.Name, input.Email); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	email := normalizeEmail(input.Email)
	existing, err := s.clientRepo.GetByEmail(ctx, input.UserID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("a client with this email already exists")
	}

	client := &entity.Client{
		UserID:  input.UserID,
		Name:    strings.TrimSpace(input.Name),
		Email:   email,
		Phone:   input.Phone,
		Company: input.Company,
		Address: input.Address,
		Notes:   input.Notes,
		Status:  enum.ClientStatusActive,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// GetClient retrieves a client by ID, enforcing ownership
func (s *ClientService) GetClient(ctx context.Context, userID, id uuid.UUID) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperror.NewNotFoundError("Client")
	}
	if client.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	return client, nil
}

// ListClientsInput represents the input for listing clients
type ListClientsInput struct {
	UserID     uuid.UUID
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.ClientStatus
	SortBy     string
	SortOrder  string
}

// ListClients lists clients with filtering
func (s *ClientService) ListClients(ctx context.Context, input *ListClientsInput) (*pagination.PaginatedResult[entity.Client], error) {
	params := &repository.ClientFilterParams{
		Pagination: input.Pagination,
		Search:     input.Search,
		Status:     input.Status,
		SortBy:     input.SortBy,
		SortOrder:  input.SortOrder,
	}

	clients, total, err := s.clientRepo.List(ctx, input.UserID, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(clients, pag), nil
}

// UpdateClientInput represents the input for updating a client
type UpdateClientInput struct {
	UserID  uuid.UUID
	ID      uuid.UUID
	Name    string
	Email   string
	Phone   *string
	Company *string
	Address *string
	Notes   *string
	Status  *enum.ClientStatus
}

// UpdateClient updates a client's profile fields. The cached invoice rollups
// are never writable here.
func (s *ClientService) UpdateClient(ctx context.Context, input *UpdateClientInput) (*entity.Client, error) {
	if fieldErrors := validateClientInput(input.Name, input.Email); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	client, err := s.GetClient(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	if email != client.Email {
		existing, err := s.clientRepo.GetByEmail(ctx, input.UserID, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewConflictError("a client with this email already exists")
		}
	}

	client.Name = strings.TrimSpace(input.Name)
	client.Email = email
	client.Phone = input.Phone
	client.Company = input.Company
	client.Address = input.Address
	client.Notes = input.Notes
	if input.Status != nil {
		client.Status = *input.Status
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// DeleteClient deletes a client. Invoices addressed to the client are kept;
// they reference the client by email, not by ID.
func (s *ClientService) DeleteClient(ctx context.Context, userID, id uuid.UUID) error {
	client, err := s.GetClient(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.clientRepo.Delete(ctx, client.ID)
}

// RefreshClientStats recomputes the client's cached invoice rollups from the
// invoice table and persists them
func (s *ClientService) RefreshClientStats(ctx context.Context, userID, id uuid.UUID) (*entity.Client, error) {
	client, err := s.GetClient(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fin, err := s.invoiceRepo.ClientFinancials(ctx, userID, client.Email)
	if err != nil {
		return nil, err
	}

	client.TotalInvoiced = fin.TotalInvoiced
	client.TotalPaid = fin.TotalPaid
	client.InvoiceCount = int(fin.InvoiceCount)
	client.LastInvoiceDate = fin.LastInvoiceDate
	client.LastPaymentDate = fin.LastPaymentDate

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// ClientStatusBreakdown holds one status group's count and its summed
// cached rollups, in currency units
type ClientStatusBreakdown struct {
	Count         int64   `json:"count"`
	TotalInvoiced float64 `json:"total_invoiced"`
	TotalPaid     float64 `json:"total_paid"`
}

// ClientStats represents aggregate client figures for one user: a per-status
// breakdown plus combined totals across all statuses
type ClientStats struct {
	TotalClients     int64                            `json:"total_clients"`
	ByStatus         map[string]ClientStatusBreakdown `json:"by_status"`
	TotalInvoiced    float64                          `json:"total_invoiced"`
	TotalPaid        float64                          `json:"total_paid"`
	TotalOutstanding float64                          `json:"total_outstanding"`
}

// GetClientStats groups clients by status with their cached financial
// rollups and sums the combined totals
func (s *ClientService) GetClientStats(ctx context.Context, userID uuid.UUID) (*ClientStats, error) {
	rows, err := s.clientRepo.StatsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &ClientStats{
		ByStatus: map[string]ClientStatusBreakdown{
			enum.ClientStatusActive.String():   {},
			enum.ClientStatusInactive.String(): {},
		},
	}

	var invoicedCents, paidCents int64
	for _, row := range rows {
		stats.TotalClients += row.Count
		invoicedCents += row.TotalInvoiced
		paidCents += row.TotalPaid
		stats.ByStatus[row.Status.String()] = ClientStatusBreakdown{
			Count:         row.Count,
			TotalInvoiced: float64(row.TotalInvoiced) / 100,
			TotalPaid:     float64(row.TotalPaid) / 100,
		}
	}

	stats.TotalInvoiced = float64(invoicedCents) / 100
	stats.TotalPaid = float64(paidCents) / 100
	stats.TotalOutstanding = float64(invoicedCents-paidCents) / 100
	return stats, nil
}

// ListOutstandingClients returns active clients that still owe money,
// largest balance first
func (s *ClientService) ListOutstandingClients(ctx context.Context, userID uuid.UUID) ([]entity.Client, error) {
	return s.clientRepo.WithOutstandingBalance(ctx, userID)
}

func validateClientInput(name, email string) []apperror.FieldError {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(name) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "name is required"})
	}
	if strings.TrimSpace(email) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "email", Message: "email is required"})
	} else if !strings.Contains(email, "@") {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "email", Message: "email is invalid"})
	}
	return fieldErrors
}
