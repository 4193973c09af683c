package service

import (
	"context"

	"github.com/google/uuid"
)

// DashboardService assembles the combined overview shown after login
type DashboardService struct {
	invoiceService *InvoiceService
	clientService  *ClientService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(invoiceService *InvoiceService, clientService *ClientService) *DashboardService {
	return &DashboardService{
		invoiceService: invoiceService,
		clientService:  clientService,
	}
}

// DashboardStats represents the combined invoice and client overview
type DashboardStats struct {
	Invoices *InvoiceStats `json:"invoices"`
	Clients  *ClientStats  `json:"clients"`
}

// GetDashboardStats returns invoice and client aggregates in one payload
func (s *DashboardService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	invoiceStats, err := s.invoiceService.GetInvoiceStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	clientStats, err := s.clientService.GetClientStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Invoices: invoiceStats,
		Clients:  clientStats,
	}, nil
}
