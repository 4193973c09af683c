package entity

import (
	"time"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default number of invoices a free-tier user may create per calendar month
const DefaultMonthlyInvoiceLimit = 5

// User represents an account holder. InvoiceCount tracks usage within the
// current calendar month; LastInvoiceReset marks when the counter last
// rolled over.
type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email               string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password            string    `gorm:"size:255;not null" json:"-"`
	FirstName           string    `gorm:"size:100;not null" json:"first_name"`
	LastName            string    `gorm:"size:100;not null" json:"last_name"`
	CompanyName         *string   `gorm:"size:200" json:"company_name,omitempty"`
	CompanyAddress      *string   `gorm:"type:text" json:"company_address,omitempty"`
	Plan                enum.Plan `gorm:"default:0" json:"plan"`
	MonthlyInvoiceLimit int       `gorm:"default:5" json:"monthly_invoice_limit"`
	InvoiceCount        int       `gorm:"default:0" json:"invoice_count"`
	LastInvoiceReset    time.Time `json:"last_invoice_reset"`
	IsActive            bool      `gorm:"default:true" json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.LastInvoiceReset.IsZero() {
		u.LastInvoiceReset = time.Now()
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsPremium reports whether the user's plan bypasses the monthly quota
func (u *User) IsPremium() bool {
	return u.Plan == enum.PlanPremium
}

// ResetMonthlyUsage zeroes the invoice counter when the calendar month has
// rolled over since the last reset. Returns true if a reset happened and the
// user needs to be persisted.
func (u *User) ResetMonthlyUsage(now time.Time) bool {
	if now.Month() == u.LastInvoiceReset.Month() && now.Year() == u.LastInvoiceReset.Year() {
		return false
	}
	u.InvoiceCount = 0
	u.LastInvoiceReset = now
	return true
}

// CanCreateInvoice reports whether the user is within their monthly quota.
// Premium users are never limited.
func (u *User) CanCreateInvoice() bool {
	if u.IsPremium() {
		return true
	}
	return u.InvoiceCount < u.MonthlyInvoiceLimit
}
