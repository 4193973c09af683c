package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transition errors returned by the invoice state machine
var (
	ErrInvoiceCancelled = errors.New("invoice is cancelled")
	ErrInvoicePaid      = errors.New("invoice is already paid")
)

// Invoice represents a billable document issued by a user to a client.
// Subtotal, TaxAmount and Total are derived from the items and tax rate,
// never taken from client input.
type Invoice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;index:idx_invoices_user_status,priority:1;index:idx_invoices_user_created" json:"user_id"`
	InvoiceNumber string             `gorm:"size:20;uniqueIndex;not null" json:"invoice_number"`
	ClientName    string             `gorm:"size:200;not null" json:"client_name"`
	ClientEmail   string             `gorm:"size:255;not null;index" json:"client_email"`
	ClientAddress *string            `gorm:"type:text" json:"client_address,omitempty"`
	Subtotal      int64              `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	TaxRate       float64            `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	TaxAmount     int64              `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Total         int64              `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Currency      string             `gorm:"size:3;default:'USD'" json:"currency"`
	Status        enum.InvoiceStatus `gorm:"default:0;index:idx_invoices_user_status,priority:2" json:"status"`
	IssueDate     time.Time          `gorm:"not null" json:"issue_date"`
	DueDate       time.Time          `gorm:"not null;index" json:"due_date"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
	ViewedAt      *time.Time         `json:"viewed_at,omitempty"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	Notes         *string            `gorm:"size:1000" json:"notes,omitempty"`
	PaymentTerms  string             `gorm:"size:500;default:'Payment due within 30 days'" json:"payment_terms"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Relationships
	User  User          `gorm:"foreignKey:UserID" json:"-"`
	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// MarshalJSON converts cent amounts to decimals and exposes the derived
// overdue flag
func (i Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	return json.Marshal(&struct {
		Alias
		Subtotal  float64 `json:"subtotal"`
		TaxAmount float64 `json:"tax_amount"`
		Total     float64 `json:"total"`
		IsOverdue bool    `json:"is_overdue"`
	}{
		Alias:     Alias(i),
		Subtotal:  float64(i.Subtotal) / 100,
		TaxAmount: float64(i.TaxAmount) / 100,
		Total:     float64(i.Total) / 100,
		IsOverdue: i.IsOverdue(time.Now()),
	})
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// CalculateTotals recomputes every derived monetary field from the items and
// tax rate. Each step rounds to 2 decimal places (ties away from zero) so the
// stored amounts match what a reader of the invoice would compute line by
// line. Pure with respect to its inputs; safe to re-run any number of times.
func (i *Invoice) CalculateTotals() {
	var subtotal int64
	for idx := range i.Items {
		item := &i.Items[idx]
		lineTotal := decimal.NewFromFloat(item.Quantity).
			Mul(decimal.New(item.UnitPrice, -2)).
			Round(2)
		item.Total = lineTotal.Shift(2).IntPart()
		subtotal += item.Total
	}

	i.Subtotal = subtotal
	i.TaxAmount = decimal.New(subtotal, -2).
		Mul(decimal.NewFromFloat(i.TaxRate)).
		Div(decimal.NewFromInt(100)).
		Round(2).
		Shift(2).
		IntPart()
	i.Total = i.Subtotal + i.TaxAmount
}

// IsOverdue reports whether the invoice is past due and still collectible.
// Derived on read; independent of any stored overdue status.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status == enum.InvoiceStatusPaid || i.Status == enum.InvoiceStatusCancelled {
		return false
	}
	return i.DueDate.Before(now)
}

// MarkAsSent transitions the invoice to sent and stamps SentAt. Re-sending a
// sent, viewed or overdue invoice is allowed; paid and cancelled invoices
// cannot be sent again.
func (i *Invoice) MarkAsSent(now time.Time) error {
	switch i.Status {
	case enum.InvoiceStatusPaid:
		return ErrInvoicePaid
	case enum.InvoiceStatusCancelled:
		return ErrInvoiceCancelled
	}
	i.Status = enum.InvoiceStatusSent
	i.SentAt = &now
	return nil
}

// MarkAsViewed transitions a sent invoice to viewed and stamps ViewedAt.
// Applied to any other state it is a no-op, not an error.
func (i *Invoice) MarkAsViewed(now time.Time) {
	if i.Status != enum.InvoiceStatusSent {
		return
	}
	i.Status = enum.InvoiceStatusViewed
	i.ViewedAt = &now
}

// MarkAsPaid transitions the invoice to paid and stamps PaidAt. An
// already-paid invoice is left untouched so PaidAt is assigned exactly once;
// a cancelled invoice cannot be paid.
func (i *Invoice) MarkAsPaid(now time.Time) error {
	switch i.Status {
	case enum.InvoiceStatusPaid:
		return nil
	case enum.InvoiceStatusCancelled:
		return ErrInvoiceCancelled
	}
	i.Status = enum.InvoiceStatusPaid
	i.PaidAt = &now
	return nil
}

// Cancel transitions the invoice to cancelled from any non-terminal state
func (i *Invoice) Cancel() error {
	switch i.Status {
	case enum.InvoiceStatusPaid:
		return ErrInvoicePaid
	case enum.InvoiceStatusCancelled:
		return ErrInvoiceCancelled
	}
	i.Status = enum.InvoiceStatusCancelled
	return nil
}

// InvoiceItem represents a line item on an invoice. Total is derived from
// Quantity and UnitPrice by Invoice.CalculateTotals.
type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	Description string    `gorm:"size:500;not null" json:"description"`
	Quantity    float64   `gorm:"type:decimal(10,2);not null" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	Total       int64     `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Invoice Invoice `gorm:"foreignKey:InvoiceID" json:"-"`
}

// MarshalJSON converts cent amounts to decimals for API responses
func (it InvoiceItem) MarshalJSON() ([]byte, error) {
	type Alias InvoiceItem
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		Total     float64 `json:"total"`
	}{
		Alias:     Alias(it),
		UnitPrice: float64(it.UnitPrice) / 100,
		Total:     float64(it.Total) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new invoice item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// InvoiceNumberPrefix returns the allocator prefix for the year-month of t,
// e.g. "INV-202608-"
func InvoiceNumberPrefix(t time.Time) string {
	return fmt.Sprintf("INV-%04d%02d-", t.Year(), int(t.Month()))
}

// FormatInvoiceNumber builds a full invoice number from a prefix and a
// sequence, zero-padding the sequence to 4 digits
func FormatInvoiceNumber(prefix string, sequence int) string {
	return fmt.Sprintf("%s%04d", prefix, sequence)
}

// ParseInvoiceSequence extracts the numeric sequence suffix from an invoice
// number such as "INV-202608-0042"
func ParseInvoiceSequence(number string) (int, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed invoice number %q", number)
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("malformed invoice number %q: %w", number, err)
	}
	return seq, nil
}
