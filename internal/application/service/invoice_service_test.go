package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/pkg/apperror"
	"github.com/SameerAli126/invoicegen-pro/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, repo *fakeUserRepo, plan enum.Plan, invoiceCount int) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:                  uuid.New(),
		Email:               fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		FirstName:           "Test",
		LastName:            "User",
		Plan:                plan,
		MonthlyInvoiceLimit: entity.DefaultMonthlyInvoiceLimit,
		InvoiceCount:        invoiceCount,
		LastInvoiceReset:    time.Now(),
		IsActive:            true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func validCreateInput(userID uuid.UUID) *CreateInvoiceInput {
	return &CreateInvoiceInput{
		UserID:      userID,
		ClientName:  "Acme Corp",
		ClientEmail: "billing@acme.test",
		TaxRate:     8.5,
		IssueDate:   time.Now(),
		DueDate:     time.Now().Add(30 * 24 * time.Hour),
		Items: []InvoiceItemInput{
			{Description: "Consulting", Quantity: 3, UnitPrice: 19.99},
		},
	}
}

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("derives totals and allocates the first number", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)

		invoice, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
		require.NoError(t, err)

		assert.Equal(t, int64(5997), invoice.Subtotal)
		assert.Equal(t, int64(510), invoice.TaxAmount)
		assert.Equal(t, int64(6507), invoice.Total)
		assert.Equal(t, enum.InvoiceStatusDraft, invoice.Status)
		assert.Equal(t, "Payment due within 30 days", invoice.PaymentTerms)

		prefix := entity.InvoiceNumberPrefix(time.Now())
		assert.Equal(t, entity.FormatInvoiceNumber(prefix, 1), invoice.InvoiceNumber)

		// Usage counter is bumped
		updated, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.InvoiceCount)
	})

	t.Run("numbers are sequential", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)

		prefix := entity.InvoiceNumberPrefix(time.Now())
		for i := 1; i <= 3; i++ {
			invoice, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
			require.NoError(t, err)
			assert.Equal(t, entity.FormatInvoiceNumber(prefix, i), invoice.InvoiceNumber)
		}
	})

	t.Run("numbers are global across users", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		alice := newTestUser(t, userRepo, enum.PlanFree, 0)
		bob := newTestUser(t, userRepo, enum.PlanFree, 0)

		prefix := entity.InvoiceNumberPrefix(time.Now())
		first, err := svc.CreateInvoice(ctx, validCreateInput(alice.ID))
		require.NoError(t, err)
		second, err := svc.CreateInvoice(ctx, validCreateInput(bob.ID))
		require.NoError(t, err)

		assert.Equal(t, entity.FormatInvoiceNumber(prefix, 1), first.InvoiceNumber)
		assert.Equal(t, entity.FormatInvoiceNumber(prefix, 2), second.InvoiceNumber)
	})

	t.Run("concurrent creates never share a number", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanPremium, 0)

		const workers = 8
		var wg sync.WaitGroup
		numbers := make(chan string, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				invoice, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
				if err == nil {
					numbers <- invoice.InvoiceNumber
				} else {
					// The only acceptable failure mode is an exhausted
					// allocator retry budget
					assert.True(t, apperror.IsConflict(err))
				}
			}()
		}
		wg.Wait()
		close(numbers)

		seen := make(map[string]bool)
		for number := range numbers {
			assert.False(t, seen[number], "number %s allocated twice", number)
			seen[number] = true
		}
		assert.NotEmpty(t, seen)
	})

	t.Run("reports all validation errors at once", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)

		input := &CreateInvoiceInput{
			UserID:      user.ID,
			ClientName:  "",
			ClientEmail: "not-an-email",
			TaxRate:     120,
			IssueDate:   time.Now(),
			DueDate:     time.Now().Add(-time.Hour),
			Items: []InvoiceItemInput{
				{Description: "", Quantity: 0, UnitPrice: 0},
			},
		}

		_, err := svc.CreateInvoice(ctx, input)
		require.Error(t, err)
		appErr := apperror.GetAppError(err)
		assert.Equal(t, "VALIDATION_ERROR", appErr.ErrorCode)

		fields := make(map[string]bool)
		for _, fe := range appErr.Errors {
			fields[fe.Field] = true
		}
		assert.True(t, fields["client_name"])
		assert.True(t, fields["client_email"])
		assert.True(t, fields["tax_rate"])
		assert.True(t, fields["due_date"])
		assert.True(t, fields["items[0].description"])
		assert.True(t, fields["items[0].quantity"])
		assert.True(t, fields["items[0].unit_price"])
	})

	t.Run("rejects a zero unit price", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)

		input := validCreateInput(user.ID)
		input.Items = []InvoiceItemInput{
			{Description: "Freebie", Quantity: 1, UnitPrice: 0},
		}

		_, err := svc.CreateInvoice(ctx, input)
		require.Error(t, err)
		appErr := apperror.GetAppError(err)
		assert.Equal(t, "VALIDATION_ERROR", appErr.ErrorCode)
		require.Len(t, appErr.Errors, 1)
		assert.Equal(t, "items[0].unit_price", appErr.Errors[0].Field)
	})

	t.Run("rejects a due date in the past", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)

		input := validCreateInput(user.ID)
		input.IssueDate = time.Now().AddDate(0, -3, 0)
		input.DueDate = time.Now().AddDate(0, -2, 0)

		_, err := svc.CreateInvoice(ctx, input)
		require.Error(t, err)
		appErr := apperror.GetAppError(err)
		assert.Equal(t, "VALIDATION_ERROR", appErr.ErrorCode)
		require.Len(t, appErr.Errors, 1)
		assert.Equal(t, "due_date", appErr.Errors[0].Field)
	})

	t.Run("defaults the issue date to creation time", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)

		input := validCreateInput(user.ID)
		input.IssueDate = time.Time{}

		invoice, err := svc.CreateInvoice(ctx, input)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), invoice.IssueDate, time.Minute)
	})

	t.Run("requires at least one item", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)

		input := validCreateInput(user.ID)
		input.Items = nil

		_, err := svc.CreateInvoice(ctx, input)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, "VALIDATION_ERROR"))
	})

	t.Run("free user over quota is rejected", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, entity.DefaultMonthlyInvoiceLimit)

		_, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, "INVOICE_LIMIT_REACHED"))
		appErr := apperror.GetAppError(err)
		assert.Equal(t, 403, appErr.Code)
	})

	t.Run("premium user bypasses the quota", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanPremium, 1000)

		_, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
		assert.NoError(t, err)
	})

	t.Run("quota resets lazily on month rollover", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, entity.DefaultMonthlyInvoiceLimit)

		// Pretend the last reset happened last month
		user.LastInvoiceReset = time.Now().AddDate(0, -1, 0)
		require.NoError(t, userRepo.Update(ctx, user))

		invoice, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
		require.NoError(t, err)
		assert.NotEmpty(t, invoice.InvoiceNumber)

		updated, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.InvoiceCount)
	})
}

func TestUpdateInvoice(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*InvoiceService, *entity.User, *entity.Invoice) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)
		invoice, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
		require.NoError(t, err)
		return svc, user, invoice
	}

	t.Run("re-derives totals and keeps the number", func(t *testing.T) {
		svc, user, invoice := setup(t)

		updated, err := svc.UpdateInvoice(ctx, &UpdateInvoiceInput{
			UserID:      user.ID,
			ID:          invoice.ID,
			ClientName:  "Acme Corp",
			ClientEmail: "billing@acme.test",
			TaxRate:     0,
			IssueDate:   invoice.IssueDate,
			DueDate:     invoice.DueDate,
			Items: []InvoiceItemInput{
				{Description: "Retainer", Quantity: 1, UnitPrice: 500},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, invoice.InvoiceNumber, updated.InvoiceNumber)
		assert.Equal(t, int64(50000), updated.Subtotal)
		assert.Equal(t, int64(0), updated.TaxAmount)
		assert.Equal(t, int64(50000), updated.Total)
	})

	t.Run("rejects edits on a paid invoice", func(t *testing.T) {
		svc, user, invoice := setup(t)

		_, err := svc.MarkInvoicePaid(ctx, user.ID, invoice.ID)
		require.NoError(t, err)

		_, err = svc.UpdateInvoice(ctx, &UpdateInvoiceInput{
			UserID:      user.ID,
			ID:          invoice.ID,
			ClientName:  "Acme Corp",
			ClientEmail: "billing@acme.test",
			IssueDate:   invoice.IssueDate,
			DueDate:     invoice.DueDate,
			Items: []InvoiceItemInput{
				{Description: "Retainer", Quantity: 1, UnitPrice: 500},
			},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("rejects moving the due date into the past", func(t *testing.T) {
		svc, user, invoice := setup(t)

		_, err := svc.UpdateInvoice(ctx, &UpdateInvoiceInput{
			UserID:      user.ID,
			ID:          invoice.ID,
			ClientName:  "Acme Corp",
			ClientEmail: "billing@acme.test",
			IssueDate:   invoice.IssueDate,
			DueDate:     time.Now().AddDate(0, 0, -1),
			Items: []InvoiceItemInput{
				{Description: "Retainer", Quantity: 1, UnitPrice: 500},
			},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, "VALIDATION_ERROR"))
	})

	t.Run("keeps an unchanged past due date", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)

		invoice, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
		require.NoError(t, err)

		// An invoice whose due date has since gone by
		pastDue := time.Now().AddDate(0, 0, -5)
		stored, err := invoiceRepo.GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		stored.IssueDate = time.Now().AddDate(0, -1, 0)
		stored.DueDate = pastDue
		require.NoError(t, invoiceRepo.Update(ctx, stored))

		updated, err := svc.UpdateInvoice(ctx, &UpdateInvoiceInput{
			UserID:      user.ID,
			ID:          invoice.ID,
			ClientName:  "Acme Corp",
			ClientEmail: "billing@acme.test",
			IssueDate:   stored.IssueDate,
			DueDate:     pastDue,
			Items: []InvoiceItemInput{
				{Description: "Retainer", Quantity: 1, UnitPrice: 500},
			},
		})
		require.NoError(t, err)
		assert.True(t, updated.DueDate.Equal(pastDue))
	})

	t.Run("rejects another user's invoice", func(t *testing.T) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		alice := newTestUser(t, userRepo, enum.PlanFree, 0)
		mallory := newTestUser(t, userRepo, enum.PlanFree, 0)

		invoice, err := svc.CreateInvoice(ctx, validCreateInput(alice.ID))
		require.NoError(t, err)

		_, err = svc.GetInvoice(ctx, mallory.ID, invoice.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		err = svc.DeleteInvoice(ctx, mallory.ID, invoice.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})
}

func TestInvoiceTransitionsViaService(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*InvoiceService, *entity.User, *entity.Invoice) {
		invoiceRepo := newFakeInvoiceRepo()
		userRepo := newFakeUserRepo()
		svc := NewInvoiceService(invoiceRepo, userRepo)
		user := newTestUser(t, userRepo, enum.PlanFree, 0)
		invoice, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
		require.NoError(t, err)
		return svc, user, invoice
	}

	t.Run("full happy path", func(t *testing.T) {
		svc, user, invoice := setup(t)

		sent, err := svc.SendInvoice(ctx, user.ID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.InvoiceStatusSent, sent.Status)
		assert.NotNil(t, sent.SentAt)

		viewed, err := svc.MarkInvoiceViewed(ctx, user.ID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.InvoiceStatusViewed, viewed.Status)

		paid, err := svc.MarkInvoicePaid(ctx, user.ID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.InvoiceStatusPaid, paid.Status)
		assert.NotNil(t, paid.PaidAt)
	})

	t.Run("view before send is a no-op", func(t *testing.T) {
		svc, user, invoice := setup(t)

		viewed, err := svc.MarkInvoiceViewed(ctx, user.ID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.InvoiceStatusDraft, viewed.Status)
		assert.Nil(t, viewed.ViewedAt)
	})

	t.Run("cancelled invoices reject send and pay", func(t *testing.T) {
		svc, user, invoice := setup(t)

		_, err := svc.CancelInvoice(ctx, user.ID, invoice.ID)
		require.NoError(t, err)

		_, err = svc.SendInvoice(ctx, user.ID, invoice.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))

		_, err = svc.MarkInvoicePaid(ctx, user.ID, invoice.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("unknown invoice is not found", func(t *testing.T) {
		svc, user, _ := setup(t)

		_, err := svc.SendInvoice(ctx, user.ID, uuid.New())
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, "NOT_FOUND"))
	})
}

func TestListInvoicesPromotesOverdue(t *testing.T) {
	ctx := context.Background()
	invoiceRepo := newFakeInvoiceRepo()
	userRepo := newFakeUserRepo()
	svc := NewInvoiceService(invoiceRepo, userRepo)
	user := newTestUser(t, userRepo, enum.PlanFree, 0)

	invoice, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
	require.NoError(t, err)

	_, err = svc.SendInvoice(ctx, user.ID, invoice.ID)
	require.NoError(t, err)

	// Time passes: the due date slips behind the clock
	stored, err := invoiceRepo.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	stored.IssueDate = time.Now().AddDate(0, 0, -30)
	stored.DueDate = time.Now().AddDate(0, 0, -1)
	require.NoError(t, invoiceRepo.Update(ctx, stored))

	result, err := svc.ListInvoices(ctx, &ListInvoicesInput{
		UserID:     user.ID,
		Pagination: pagination.DefaultPagination(),
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, enum.InvoiceStatusOverdue, result.Items[0].Status)
}

func TestGetInvoiceStats(t *testing.T) {
	ctx := context.Background()
	invoiceRepo := newFakeInvoiceRepo()
	userRepo := newFakeUserRepo()
	svc := NewInvoiceService(invoiceRepo, userRepo)
	user := newTestUser(t, userRepo, enum.PlanPremium, 0)

	// One paid invoice: 3 x 19.99 + 8.5% tax = 65.07
	paid, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
	require.NoError(t, err)
	_, err = svc.MarkInvoicePaid(ctx, user.ID, paid.ID)
	require.NoError(t, err)

	// One sent invoice, not yet due
	sent, err := svc.CreateInvoice(ctx, validCreateInput(user.ID))
	require.NoError(t, err)
	_, err = svc.SendInvoice(ctx, user.ID, sent.ID)
	require.NoError(t, err)

	// One draft
	_, err = svc.CreateInvoice(ctx, validCreateInput(user.ID))
	require.NoError(t, err)

	stats, err := svc.GetInvoiceStats(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalInvoices)
	assert.Equal(t, int64(1), stats.ByStatus["paid"].Count)
	assert.Equal(t, int64(1), stats.ByStatus["sent"].Count)
	assert.Equal(t, int64(1), stats.ByStatus["draft"].Count)
	assert.Equal(t, int64(0), stats.ByStatus["cancelled"].Count)

	// Every status group carries its own summed amount
	assert.InDelta(t, 65.07, stats.ByStatus["paid"].TotalAmount, 0.001)
	assert.InDelta(t, 65.07, stats.ByStatus["sent"].TotalAmount, 0.001)
	assert.InDelta(t, 65.07, stats.ByStatus["draft"].TotalAmount, 0.001)
	assert.InDelta(t, 0, stats.ByStatus["cancelled"].TotalAmount, 0.001)

	// Combined amount spans all statuses, paid and unpaid alike
	assert.InDelta(t, 195.21, stats.TotalAmount, 0.001)
	assert.InDelta(t, 65.07, stats.TotalRevenue, 0.001)
	assert.InDelta(t, 65.07, stats.Outstanding, 0.001)
	assert.InDelta(t, 0, stats.Overdue, 0.001)
	assert.InDelta(t, 65.07, stats.DraftTotal, 0.001)
}
