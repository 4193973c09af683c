package handler

import (
	"context"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/application/service"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/internal/presentation/http/dto/response"
	"github.com/SameerAli126/invoicegen-pro/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// InvoiceItemRequest represents a line item in the request
type InvoiceItemRequest struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required"`
	UnitPrice   float64 `json:"unit_price"`
}

// CreateInvoiceRequest represents the create invoice request body
type CreateInvoiceRequest struct {
	ClientName    string               `json:"client_name" binding:"required"`
	ClientEmail   string               `json:"client_email" binding:"required,email"`
	ClientAddress *string              `json:"client_address"`
	TaxRate       float64              `json:"tax_rate"`
	Currency      string               `json:"currency"`
	IssueDate     string               `json:"issue_date"`
	DueDate       string               `json:"due_date" binding:"required"`
	Notes         *string              `json:"notes"`
	PaymentTerms  string               `json:"payment_terms"`
	Items         []InvoiceItemRequest `json:"items" binding:"required,min=1"`
}

// Create handles invoice creation
// @Summary Create Invoice
// @Description Create a draft invoice; totals and the invoice number are derived server-side
// @Tags invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	// An omitted issue date defaults server-side
	var issueDate time.Time
	if req.IssueDate != "" {
		var err error
		issueDate, err = parseDate(req.IssueDate)
		if err != nil {
			response.BadRequest(c, "Invalid issue_date format, expected YYYY-MM-DD")
			return
		}
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		response.BadRequest(c, "Invalid due_date format, expected YYYY-MM-DD")
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), &service.CreateInvoiceInput{
		UserID:        *userID,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientAddress: req.ClientAddress,
		TaxRate:       req.TaxRate,
		Currency:      req.Currency,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Notes:         req.Notes,
		PaymentTerms:  req.PaymentTerms,
		Items:         toItemInputs(req.Items),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice created", invoice)
}

// List handles listing invoices
// @Summary List Invoices
// @Description Get invoices with pagination and filtering
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Param search query string false "Search term"
// @Param status query string false "Status filter"
// @Success 200 {object} response.APIResponse
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	params := pagination.DefaultPagination()
	if p := c.Query("page"); p != "" {
		if parsed, err := parsePositiveInt(p); err == nil {
			params.Page = parsed
		}
	}
	if pp := c.Query("per_page"); pp != "" {
		if parsed, err := parsePositiveInt(pp); err == nil {
			params.PerPage = parsed
		}
	}

	var status *enum.InvoiceStatus
	if s := c.Query("status"); s != "" {
		if parsed, ok := enum.ParseInvoiceStatus(s); ok {
			status = &parsed
		}
	}

	var startDate, endDate *time.Time
	if sd := c.Query("start_date"); sd != "" {
		if parsed, err := parseDate(sd); err == nil {
			startDate = &parsed
		}
	}
	if ed := c.Query("end_date"); ed != "" {
		if parsed, err := parseDate(ed); err == nil {
			endDate = &parsed
		}
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), &service.ListInvoicesInput{
		UserID:      *userID,
		Pagination:  params,
		Search:      c.Query("search"),
		Status:      status,
		ClientEmail: c.Query("client_email"),
		StartDate:   startDate,
		EndDate:     endDate,
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Invoices retrieved", result)
}

// GetStats returns aggregate invoice figures
// @Summary Invoice Stats
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /invoices/stats [get]
func (h *InvoiceHandler) GetStats(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	stats, err := h.invoiceService.GetInvoiceStats(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice stats retrieved", stats)
}

// Get handles retrieving a single invoice
// @Summary Get Invoice
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), *userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved", invoice)
}

// Update handles updating an invoice
// @Summary Update Invoice
// @Description Replace editable fields and re-derive totals
// @Tags invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	// An omitted issue date defaults server-side
	var issueDate time.Time
	if req.IssueDate != "" {
		var err error
		issueDate, err = parseDate(req.IssueDate)
		if err != nil {
			response.BadRequest(c, "Invalid issue_date format, expected YYYY-MM-DD")
			return
		}
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		response.BadRequest(c, "Invalid due_date format, expected YYYY-MM-DD")
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), &service.UpdateInvoiceInput{
		UserID:        *userID,
		ID:            id,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientAddress: req.ClientAddress,
		TaxRate:       req.TaxRate,
		Currency:      req.Currency,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Notes:         req.Notes,
		PaymentTerms:  req.PaymentTerms,
		Items:         toItemInputs(req.Items),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice updated", invoice)
}

// Delete handles deleting an invoice
// @Summary Delete Invoice
// @Tags invoices
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 204
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), *userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Send marks an invoice as sent
// @Summary Send Invoice
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	h.applyTransition(c, h.invoiceService.SendInvoice, "Invoice sent")
}

// MarkViewed records that the client opened the invoice
// @Summary Mark Invoice Viewed
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Router /invoices/{id}/view [post]
func (h *InvoiceHandler) MarkViewed(c *gin.Context) {
	h.applyTransition(c, h.invoiceService.MarkInvoiceViewed, "Invoice view recorded")
}

// MarkPaid marks an invoice as paid
// @Summary Mark Invoice Paid
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/mark-paid [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	h.applyTransition(c, h.invoiceService.MarkInvoicePaid, "Invoice marked as paid")
}

// Cancel cancels an invoice
// @Summary Cancel Invoice
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.applyTransition(c, h.invoiceService.CancelInvoice, "Invoice cancelled")
}

type transitionFunc func(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error)

func (h *InvoiceHandler) applyTransition(c *gin.Context, fn transitionFunc, message string) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := fn(c.Request.Context(), *userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, message, invoice)
}

func toItemInputs(items []InvoiceItemRequest) []service.InvoiceItemInput {
	inputs := make([]service.InvoiceItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return inputs
}

// parseDate accepts dates with or without a time component
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
