package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/repository"
	"github.com/SameerAli126/invoicegen-pro/pkg/apperror"
	"github.com/google/uuid"
)

// fakeInvoiceRepo is an in-memory InvoiceRepository. The number map plays
// the role of the unique index: concurrent creates with the same number
// conflict exactly like the database would.
type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*entity.Invoice
	byNumber map[string]uuid.UUID
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[uuid.UUID]*entity.Invoice),
		byNumber: make(map[string]uuid.UUID),
	}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byNumber[invoice.InvoiceNumber]; taken {
		return apperror.NewConflictError("invoice number already exists")
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	stored := *invoice
	r.invoices[invoice.ID] = &stored
	r.byNumber[invoice.InvoiceNumber] = invoice.ID
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	copied := *inv
	return &copied, nil
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *invoice
	r.invoices[invoice.ID] = &stored
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inv, ok := r.invoices[id]; ok {
		delete(r.byNumber, inv.InvoiceNumber)
		delete(r.invoices, id)
	}
	return nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, userID uuid.UUID, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []entity.Invoice
	for _, inv := range r.invoices {
		if inv.UserID != userID {
			continue
		}
		if params.Status != nil && inv.Status != *params.Status {
			continue
		}
		if params.ClientEmail != "" && inv.ClientEmail != params.ClientEmail {
			continue
		}
		if params.Search != "" && !strings.Contains(inv.InvoiceNumber, params.Search) &&
			!strings.Contains(inv.ClientName, params.Search) {
			continue
		}
		matched = append(matched, *inv)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].InvoiceNumber < matched[j].InvoiceNumber
	})
	return matched, int64(len(matched)), nil
}

func (r *fakeInvoiceRepo) LastNumberForPrefix(ctx context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last string
	for number := range r.byNumber {
		if strings.HasPrefix(number, prefix) && number > last {
			last = number
		}
	}
	return last, nil
}

func (r *fakeInvoiceRepo) StatsByStatus(ctx context.Context, userID uuid.UUID) ([]repository.StatusStatsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byStatus := make(map[enum.InvoiceStatus]*repository.StatusStatsResult)
	for _, inv := range r.invoices {
		if inv.UserID != userID {
			continue
		}
		row, ok := byStatus[inv.Status]
		if !ok {
			row = &repository.StatusStatsResult{Status: inv.Status}
			byStatus[inv.Status] = row
		}
		row.Count++
		row.Total += inv.Total
	}

	results := make([]repository.StatusStatsResult, 0, len(byStatus))
	for _, row := range byStatus {
		results = append(results, *row)
	}
	return results, nil
}

func (r *fakeInvoiceRepo) ClientFinancials(ctx context.Context, userID uuid.UUID, clientEmail string) (*repository.ClientFinancialsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := &repository.ClientFinancialsResult{}
	for _, inv := range r.invoices {
		if inv.UserID != userID || inv.ClientEmail != clientEmail {
			continue
		}
		result.InvoiceCount++
		result.TotalInvoiced += inv.Total
		if inv.Status == enum.InvoiceStatusPaid {
			result.TotalPaid += inv.Total
		}
		if result.LastInvoiceDate == nil || inv.CreatedAt.After(*result.LastInvoiceDate) {
			created := inv.CreatedAt
			result.LastInvoiceDate = &created
		}
		if inv.PaidAt != nil && (result.LastPaymentDate == nil || inv.PaidAt.After(*result.LastPaymentDate)) {
			result.LastPaymentDate = inv.PaidAt
		}
	}
	return result, nil
}

func (r *fakeInvoiceRepo) PromoteOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var promoted int64
	for _, inv := range r.invoices {
		if inv.UserID != userID {
			continue
		}
		if (inv.Status == enum.InvoiceStatusSent || inv.Status == enum.InvoiceStatusViewed) && inv.DueDate.Before(now) {
			inv.Status = enum.InvoiceStatusOverdue
			promoted++
		}
	}
	return promoted, nil
}

// fakeUserRepo is an in-memory UserRepository
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return apperror.NewConflictError("a user with this email already exists")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) IncrementInvoiceCount(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		u.InvoiceCount++
	}
	return nil
}

// fakeClientRepo is an in-memory ClientRepository
type fakeClientRepo struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*entity.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[uuid.UUID]*entity.Client)}
}

func (r *fakeClientRepo) Create(ctx context.Context, client *entity.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		if c.UserID == client.UserID && c.Email == client.Email {
			return apperror.NewConflictError("a client with this email already exists")
		}
	}
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	stored := *client
	r.clients[client.ID] = &stored
	return nil
}

func (r *fakeClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeClientRepo) GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		if c.UserID == userID && c.Email == email {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeClientRepo) Update(ctx context.Context, client *entity.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *client
	r.clients[client.ID] = &stored
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, id)
	return nil
}

func (r *fakeClientRepo) List(ctx context.Context, userID uuid.UUID, params *repository.ClientFilterParams) ([]entity.Client, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []entity.Client
	for _, c := range r.clients {
		if c.UserID != userID {
			continue
		}
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		if params.Search != "" && !strings.Contains(c.Name, params.Search) && !strings.Contains(c.Email, params.Search) {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return matched, int64(len(matched)), nil
}

func (r *fakeClientRepo) StatsByStatus(ctx context.Context, userID uuid.UUID) ([]repository.ClientStatusStatsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups := make(map[enum.ClientStatus]*repository.ClientStatusStatsResult)
	for _, c := range r.clients {
		if c.UserID != userID {
			continue
		}
		row, ok := groups[c.Status]
		if !ok {
			row = &repository.ClientStatusStatsResult{Status: c.Status}
			groups[c.Status] = row
		}
		row.Count++
		row.TotalInvoiced += c.TotalInvoiced
		row.TotalPaid += c.TotalPaid
	}
	results := make([]repository.ClientStatusStatsResult, 0, len(groups))
	for _, row := range groups {
		results = append(results, *row)
	}
	return results, nil
}

func (r *fakeClientRepo) WithOutstandingBalance(ctx context.Context, userID uuid.UUID) ([]entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []entity.Client
	for _, c := range r.clients {
		if c.UserID == userID && c.Status == enum.ClientStatusActive && c.OutstandingBalance() > 0 {
			matched = append(matched, *c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].OutstandingBalance() > matched[j].OutstandingBalance()
	})
	return matched, nil
}
