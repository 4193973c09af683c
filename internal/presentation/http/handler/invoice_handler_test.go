package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/application/service"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInvoiceRepo is the minimal repository the create path touches.
type stubInvoiceRepo struct {
	invoices map[uuid.UUID]*entity.Invoice
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{invoices: make(map[uuid.UUID]*entity.Invoice)}
}

func (r *stubInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	stored := *invoice
	r.invoices[invoice.ID] = &stored
	return nil
}

func (r *stubInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	copied := *inv
	return &copied, nil
}

func (r *stubInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error { return nil }
func (r *stubInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error            { return nil }

func (r *stubInvoiceRepo) List(ctx context.Context, userID uuid.UUID, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	return nil, 0, nil
}

func (r *stubInvoiceRepo) LastNumberForPrefix(ctx context.Context, prefix string) (string, error) {
	return "", nil
}

func (r *stubInvoiceRepo) StatsByStatus(ctx context.Context, userID uuid.UUID) ([]repository.StatusStatsResult, error) {
	return nil, nil
}

func (r *stubInvoiceRepo) ClientFinancials(ctx context.Context, userID uuid.UUID, clientEmail string) (*repository.ClientFinancialsResult, error) {
	return &repository.ClientFinancialsResult{}, nil
}

func (r *stubInvoiceRepo) PromoteOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	return 0, nil
}

type stubUserRepo struct {
	user *entity.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }

func (r *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if r.user != nil && r.user.ID == id {
		copied := *r.user
		return &copied, nil
	}
	return nil, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, nil
}

func (r *stubUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }

func (r *stubUserRepo) IncrementInvoiceCount(ctx context.Context, id uuid.UUID) error {
	if r.user != nil && r.user.ID == id {
		r.user.InvoiceCount++
	}
	return nil
}

func newCreateRouter(user *entity.User, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewInvoiceService(newStubInvoiceRepo(), &stubUserRepo{user: user})
	h := NewInvoiceHandler(svc)

	router := gin.New()
	router.POST("/invoices", func(c *gin.Context) {
		if authenticated && user != nil {
			c.Set("user_id", user.ID)
		}
		c.Next()
	}, h.Create)
	return router
}

func postInvoice(t *testing.T, router *gin.Engine, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func futureDueDate() string {
	return time.Now().AddDate(0, 0, 30).Format("2006-01-02")
}

// No issue_date on purpose: it defaults server-side
func validCreateBody() string {
	return fmt.Sprintf(`{
		"client_name": "Acme Corp",
		"client_email": "billing@acme.test",
		"tax_rate": 8.5,
		"due_date": %q,
		"items": [{"description": "Consulting", "quantity": 3, "unit_price": 19.99}]
	}`, futureDueDate())
}

func TestInvoiceHandlerCreate(t *testing.T) {
	freshUser := func() *entity.User {
		return &entity.User{
			ID:                  uuid.New(),
			MonthlyInvoiceLimit: 5,
			LastInvoiceReset:    time.Now(),
		}
	}

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		router := newCreateRouter(freshUser(), false)
		rec, envelope := postInvoice(t, router, validCreateBody())

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, false, envelope["success"])
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		router := newCreateRouter(freshUser(), true)
		rec, envelope := postInvoice(t, router, `{"client_name": `)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, envelope["success"])
	})

	t.Run("missing items fails binding", func(t *testing.T) {
		router := newCreateRouter(freshUser(), true)
		rec, _ := postInvoice(t, router, fmt.Sprintf(`{
			"client_name": "Acme Corp",
			"client_email": "billing@acme.test",
			"due_date": %q,
			"items": []
		}`, futureDueDate()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("out-of-range tax rate is a validation error", func(t *testing.T) {
		router := newCreateRouter(freshUser(), true)
		rec, envelope := postInvoice(t, router, fmt.Sprintf(`{
			"client_name": "Acme Corp",
			"client_email": "billing@acme.test",
			"tax_rate": 150,
			"due_date": %q,
			"items": [{"description": "Consulting", "quantity": 1, "unit_price": 10}]
		}`, futureDueDate()))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", envelope["error"])
	})

	t.Run("past due date is a validation error", func(t *testing.T) {
		router := newCreateRouter(freshUser(), true)
		rec, envelope := postInvoice(t, router, fmt.Sprintf(`{
			"client_name": "Acme Corp",
			"client_email": "billing@acme.test",
			"due_date": %q,
			"items": [{"description": "Consulting", "quantity": 1, "unit_price": 10}]
		}`, time.Now().AddDate(0, -2, 0).Format("2006-01-02")))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", envelope["error"])
	})

	t.Run("exhausted quota maps to 403 with its code", func(t *testing.T) {
		user := freshUser()
		user.InvoiceCount = 5
		router := newCreateRouter(user, true)
		rec, envelope := postInvoice(t, router, validCreateBody())

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "INVOICE_LIMIT_REACHED", envelope["error"])
	})

	t.Run("valid request returns the derived invoice", func(t *testing.T) {
		router := newCreateRouter(freshUser(), true)
		rec, envelope := postInvoice(t, router, validCreateBody())

		require.Equal(t, http.StatusCreated, rec.Code)
		data, ok := envelope["data"].(map[string]any)
		require.True(t, ok)

		assert.NotEmpty(t, data["invoice_number"])
		// Omitted issue date was filled in server-side
		assert.NotEmpty(t, data["issue_date"])
		assert.InDelta(t, 59.97, data["subtotal"], 0.001)
		assert.InDelta(t, 5.10, data["tax_amount"], 0.001)
		assert.InDelta(t, 65.07, data["total"], 0.001)
		assert.Equal(t, "draft", data["status"])
	})
}
