package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/repository"
	"github.com/SameerAli126/invoicegen-pro/pkg/apperror"
	"github.com/SameerAli126/invoicegen-pro/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attempts the number allocator makes before giving up on a duplicate-key
// conflict
const maxNumberAttempts = 3

// InvoiceService handles invoice-related operations
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	userRepo    repository.UserRepository
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, userRepo repository.UserRepository) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		userRepo:    userRepo,
	}
}

// InvoiceItemInput represents a line item input. UnitPrice is in currency
// units, not cents.
type InvoiceItemInput struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

// CreateInvoiceInput represents the input for creating an invoice
type CreateInvoiceInput struct {
	UserID        uuid.UUID
	ClientName    string
	ClientEmail   string
	ClientAddress *string
	TaxRate       float64
	Currency      string
	IssueDate     time.Time
	DueDate       time.Time
	Notes         *string
	PaymentTerms  string
	Items         []InvoiceItemInput
}

// CreateInvoice creates a new invoice: validates the input, enforces the
// monthly quota, derives all totals and allocates the next invoice number.
// An absent issue date defaults to the creation time.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
	if input.IssueDate.IsZero() {
		input.IssueDate = time.Now()
	}

	fieldErrors := validateInvoiceInput(input.ClientName, input.ClientEmail, input.TaxRate, input.IssueDate, input.DueDate, input.Items)
	if !input.DueDate.IsZero() && !input.DueDate.After(time.Now()) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "due_date", Message: "due date must be in the future"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}

	now := time.Now()
	if user.ResetMonthlyUsage(now) {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	if !user.CanCreateInvoice() {
		return nil, apperror.NewQuotaExceededError(user.InvoiceCount, user.MonthlyInvoiceLimit)
	}

	invoice := &entity.Invoice{
		UserID:        input.UserID,
		ClientName:    strings.TrimSpace(input.ClientName),
		ClientEmail:   normalizeEmail(input.ClientEmail),
		ClientAddress: input.ClientAddress,
		TaxRate:       input.TaxRate,
		Currency:      defaultString(input.Currency, "USD"),
		Status:        enum.InvoiceStatusDraft,
		IssueDate:     input.IssueDate,
		DueDate:       input.DueDate,
		Notes:         input.Notes,
		PaymentTerms:  defaultString(input.PaymentTerms, "Payment due within 30 days"),
		Items:         buildItems(input.Items),
	}
	invoice.CalculateTotals()

	if err := s.allocateAndCreate(ctx, invoice, now); err != nil {
		return nil, err
	}

	if err := s.userRepo.IncrementInvoiceCount(ctx, user.ID); err != nil {
		return nil, err
	}

	return s.invoiceRepo.GetByID(ctx, invoice.ID)
}

// allocateAndCreate assigns the next sequential invoice number and persists
// the invoice. The unique index on invoice_number is the arbiter under
// concurrency: on a duplicate-key conflict the allocator re-reads the high
// water mark and tries again, up to maxNumberAttempts times.
func (s *InvoiceService) allocateAndCreate(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
	prefix := entity.InvoiceNumberPrefix(now)

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		last, err := s.invoiceRepo.LastNumberForPrefix(ctx, prefix)
		if err != nil {
			return err
		}

		seq := 1
		if last != "" {
			prev, err := entity.ParseInvoiceSequence(last)
			if err != nil {
				return err
			}
			seq = prev + 1
		}
		invoice.InvoiceNumber = entity.FormatInvoiceNumber(prefix, seq)

		err = s.invoiceRepo.Create(ctx, invoice)
		if err == nil {
			return nil
		}
		if !apperror.IsConflict(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// GetInvoice retrieves an invoice by ID, enforcing ownership
func (s *InvoiceService) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	return invoice, nil
}

// ListInvoicesInput represents the input for listing invoices
type ListInvoicesInput struct {
	UserID      uuid.UUID
	Pagination  *pagination.PaginationParams
	Search      string
	Status      *enum.InvoiceStatus
	ClientEmail string
	StartDate   *time.Time
	EndDate     *time.Time
	SortBy      string
	SortOrder   string
}

// ListInvoices lists invoices with filtering. Sent and viewed invoices whose
// due date has passed are promoted to overdue first, so a listing never shows
// a stale collectible status.
func (s *InvoiceService) ListInvoices(ctx context.Context, input *ListInvoicesInput) (*pagination.PaginatedResult[entity.Invoice], error) {
	if _, err := s.invoiceRepo.PromoteOverdue(ctx, input.UserID, time.Now()); err != nil {
		return nil, err
	}

	params := &repository.InvoiceFilterParams{
		Pagination:  input.Pagination,
		Search:      input.Search,
		Status:      input.Status,
		ClientEmail: input.ClientEmail,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		SortBy:      input.SortBy,
		SortOrder:   input.SortOrder,
	}

	invoices, total, err := s.invoiceRepo.List(ctx, input.UserID, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(invoices, pag), nil
}

// UpdateInvoiceInput represents the input for updating an invoice. The
// invoice number, status and lifecycle timestamps are never taken from
// input.
type UpdateInvoiceInput struct {
	UserID        uuid.UUID
	ID            uuid.UUID
	ClientName    string
	ClientEmail   string
	ClientAddress *string
	TaxRate       float64
	Currency      string
	IssueDate     time.Time
	DueDate       time.Time
	Notes         *string
	PaymentTerms  string
	Items         []InvoiceItemInput
}

// UpdateInvoice replaces an invoice's editable fields and re-derives every
// total. Paid and cancelled invoices cannot be edited. An absent issue date
// keeps the stored one; a changed due date must be in the future, while an
// unchanged past due date is left alone.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, input *UpdateInvoiceInput) (*entity.Invoice, error) {
	if fieldErrors := validateInvoiceInput(input.ClientName, input.ClientEmail, input.TaxRate, input.IssueDate, input.DueDate, input.Items); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != input.UserID {
		return nil, apperror.ErrForbidden
	}
	if invoice.Status.IsTerminal() {
		return nil, apperror.NewConflictError(fmt.Sprintf("cannot edit a %s invoice", invoice.Status))
	}

	if input.IssueDate.IsZero() {
		input.IssueDate = invoice.IssueDate
	}
	var fieldErrors []apperror.FieldError
	if input.DueDate.Before(input.IssueDate) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "due_date", Message: "due date cannot be before issue date"})
	}
	if !input.DueDate.Equal(invoice.DueDate) && !input.DueDate.After(time.Now()) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "due_date", Message: "due date must be in the future"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	invoice.ClientName = strings.TrimSpace(input.ClientName)
	invoice.ClientEmail = normalizeEmail(input.ClientEmail)
	invoice.ClientAddress = input.ClientAddress
	invoice.TaxRate = input.TaxRate
	invoice.Currency = defaultString(input.Currency, invoice.Currency)
	invoice.IssueDate = input.IssueDate
	invoice.DueDate = input.DueDate
	invoice.Notes = input.Notes
	invoice.PaymentTerms = defaultString(input.PaymentTerms, invoice.PaymentTerms)

	items := buildItems(input.Items)
	for i := range items {
		items[i].InvoiceID = invoice.ID
	}
	invoice.Items = items
	invoice.CalculateTotals()

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}

	return s.invoiceRepo.GetByID(ctx, invoice.ID)
}

// DeleteInvoice deletes an invoice and its items
func (s *InvoiceService) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.invoiceRepo.Delete(ctx, id)
}

// SendInvoice marks an invoice as sent
func (s *InvoiceService) SendInvoice(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	return s.transition(ctx, userID, id, func(inv *entity.Invoice, now time.Time) error {
		return inv.MarkAsSent(now)
	})
}

// MarkInvoiceViewed records that the client has opened the invoice. Only a
// sent invoice changes state; for any other state this is a no-op.
func (s *InvoiceService) MarkInvoiceViewed(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	return s.transition(ctx, userID, id, func(inv *entity.Invoice, now time.Time) error {
		inv.MarkAsViewed(now)
		return nil
	})
}

// MarkInvoicePaid marks an invoice as paid
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	return s.transition(ctx, userID, id, func(inv *entity.Invoice, now time.Time) error {
		return inv.MarkAsPaid(now)
	})
}

// CancelInvoice cancels an invoice
func (s *InvoiceService) CancelInvoice(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	return s.transition(ctx, userID, id, func(inv *entity.Invoice, now time.Time) error {
		return inv.Cancel()
	})
}

// transition loads an invoice, enforces ownership, applies a state change
// and persists the result. Entity-level transition errors surface as 409s.
func (s *InvoiceService) transition(ctx context.Context, userID, id uuid.UUID, apply func(*entity.Invoice, time.Time) error) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != userID {
		return nil, apperror.ErrForbidden
	}

	if err := apply(invoice, time.Now()); err != nil {
		return nil, apperror.NewConflictError(err.Error())
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// InvoiceStatusBreakdown holds the count and summed amount for one status.
// Amounts are in currency units.
type InvoiceStatusBreakdown struct {
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// InvoiceStats represents aggregate invoice figures for one user. Monetary
// amounts are in currency units. TotalAmount spans every status; the
// revenue/outstanding figures are the collectible decomposition on top.
type InvoiceStats struct {
	TotalInvoices int64                             `json:"total_invoices"`
	TotalAmount   float64                           `json:"total_amount"`
	ByStatus      map[string]InvoiceStatusBreakdown `json:"by_status"`
	TotalRevenue  float64                           `json:"total_revenue"`
	Outstanding   float64                           `json:"outstanding"`
	Overdue       float64                           `json:"overdue"`
	DraftTotal    float64                           `json:"draft_total"`
}

// GetInvoiceStats aggregates a user's invoices by status. Overdue promotion
// runs first so the figures reflect the real collectible state.
func (s *InvoiceService) GetInvoiceStats(ctx context.Context, userID uuid.UUID) (*InvoiceStats, error) {
	if _, err := s.invoiceRepo.PromoteOverdue(ctx, userID, time.Now()); err != nil {
		return nil, err
	}

	rows, err := s.invoiceRepo.StatsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &InvoiceStats{
		ByStatus: map[string]InvoiceStatusBreakdown{},
	}
	for _, st := range []enum.InvoiceStatus{
		enum.InvoiceStatusDraft, enum.InvoiceStatusSent, enum.InvoiceStatusViewed,
		enum.InvoiceStatusPaid, enum.InvoiceStatusOverdue, enum.InvoiceStatusCancelled,
	} {
		stats.ByStatus[st.String()] = InvoiceStatusBreakdown{}
	}

	var totalCents, revenueCents, outstandingCents, overdueCents, draftCents int64
	for _, row := range rows {
		stats.TotalInvoices += row.Count
		totalCents += row.Total
		stats.ByStatus[row.Status.String()] = InvoiceStatusBreakdown{
			Count:       row.Count,
			TotalAmount: float64(row.Total) / 100,
		}

		switch row.Status {
		case enum.InvoiceStatusPaid:
			revenueCents += row.Total
		case enum.InvoiceStatusSent, enum.InvoiceStatusViewed:
			outstandingCents += row.Total
		case enum.InvoiceStatusOverdue:
			outstandingCents += row.Total
			overdueCents += row.Total
		case enum.InvoiceStatusDraft:
			draftCents += row.Total
		}
	}

	stats.TotalAmount = float64(totalCents) / 100
	stats.TotalRevenue = float64(revenueCents) / 100
	stats.Outstanding = float64(outstandingCents) / 100
	stats.Overdue = float64(overdueCents) / 100
	stats.DraftTotal = float64(draftCents) / 100
	return stats, nil
}

// buildItems converts item inputs to entities, capturing the submitted order
// in Position and converting unit prices to cents
func buildItems(inputs []InvoiceItemInput) []entity.InvoiceItem {
	items := make([]entity.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		items = append(items, entity.InvoiceItem{
			Position:    i,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			UnitPrice:   decimal.NewFromFloat(in.UnitPrice).Round(2).Shift(2).IntPart(),
		})
	}
	return items
}

// validateInvoiceInput checks the invariants every invoice write must hold
// and reports all violations at once
func validateInvoiceInput(clientName, clientEmail string, taxRate float64, issueDate, dueDate time.Time, items []InvoiceItemInput) []apperror.FieldError {
	var fieldErrors []apperror.FieldError

	if strings.TrimSpace(clientName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "client_name", Message: "client name is required"})
	}
	if strings.TrimSpace(clientEmail) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "client_email", Message: "client email is required"})
	} else if !strings.Contains(clientEmail, "@") {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "client_email", Message: "client email is invalid"})
	}
	if taxRate < 0 || taxRate > 100 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "tax_rate", Message: "tax rate must be between 0 and 100"})
	}
	if dueDate.IsZero() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "due_date", Message: "due date is required"})
	} else if !issueDate.IsZero() && dueDate.Before(issueDate) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "due_date", Message: "due date cannot be before issue date"})
	}

	if len(items) == 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items", Message: "at least one item is required"})
	}
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].description", i),
				Message: "description is required",
			})
		}
		if item.Quantity <= 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be greater than zero",
			})
		}
		if item.UnitPrice <= 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].unit_price", i),
				Message: "unit price must be greater than zero",
			})
		}
	}

	return fieldErrors
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
