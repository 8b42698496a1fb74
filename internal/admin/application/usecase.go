package application

import (
	"context"

	"go-shop/internal/admin/domain"
	"go-shop/internal/admin/ports"
)

// AdminUseCase serves the admin dashboard
type AdminUseCase struct {
	stats     ports.StatsReader
	customers ports.CustomerDirectory
}

// NewAdminUseCase creates a new admin use case
func NewAdminUseCase(stats ports.StatsReader, customers ports.CustomerDirectory) *AdminUseCase {
	return &AdminUseCase{stats: stats, customers: customers}
}

// GetStats returns the dashboard aggregate
func (uc *AdminUseCase) GetStats(ctx context.Context) (*domain.Stats, error) {
	return uc.stats.Stats(ctx)
}

// ListCustomers returns every customer, newest first
func (uc *AdminUseCase) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return uc.customers.ListCustomers(ctx)
}
