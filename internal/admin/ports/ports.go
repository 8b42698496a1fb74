package ports

import (
	"context"

	"go-shop/internal/admin/domain"
)

// StatsReader aggregates dashboard numbers across the store
type StatsReader interface {
	Stats(ctx context.Context) (*domain.Stats, error)
}

// CustomerDirectory lists the store's customers
type CustomerDirectory interface {
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
}
