package entity

import (
	"encoding/json"
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client represents a customer a user bills. The rollup fields
// (TotalInvoiced, TotalPaid, InvoiceCount, LastInvoiceDate, LastPaymentDate)
// are cached aggregates over the invoices matching the client's email; they
// are only refreshed by an explicit recompute, so they may lag behind the
// invoice table between refreshes.
type Client struct {
	ID              uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_clients_user_email,priority:1" json:"user_id"`
	Name            string            `gorm:"size:200;not null" json:"name"`
	Email           string            `gorm:"size:255;not null;uniqueIndex:idx_clients_user_email,priority:2" json:"email"`
	Phone           *string           `gorm:"size:50" json:"phone,omitempty"`
	Company         *string           `gorm:"size:200" json:"company,omitempty"`
	Address         *string           `gorm:"type:text" json:"address,omitempty"`
	Notes           *string           `gorm:"size:1000" json:"notes,omitempty"`
	Status          enum.ClientStatus `gorm:"default:0;index" json:"status"`
	TotalInvoiced   int64             `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	TotalPaid       int64             `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	InvoiceCount    int               `gorm:"default:0" json:"invoice_count"`
	LastInvoiceDate *time.Time        `json:"last_invoice_date,omitempty"`
	LastPaymentDate *time.Time        `json:"last_payment_date,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// OutstandingBalance returns the unpaid portion of everything invoiced to
// this client, in cents, based on the cached rollups
func (c *Client) OutstandingBalance() int64 {
	return c.TotalInvoiced - c.TotalPaid
}

// MarshalJSON converts cent amounts to decimals and exposes the derived
// outstanding balance
func (c Client) MarshalJSON() ([]byte, error) {
	type Alias Client
	return json.Marshal(&struct {
		Alias
		TotalInvoiced      float64 `json:"total_invoiced"`
		TotalPaid          float64 `json:"total_paid"`
		OutstandingBalance float64 `json:"outstanding_balance"`
	}{
		Alias:              Alias(c),
		TotalInvoiced:      float64(c.TotalInvoiced) / 100,
		TotalPaid:          float64(c.TotalPaid) / 100,
		OutstandingBalance: float64(c.OutstandingBalance()) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new client
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}
