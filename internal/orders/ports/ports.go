package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"go-shop/internal/orders/domain"
)

// ProductInfo is the slice of the catalog the consolidation routine needs
type ProductInfo struct {
	ID    uint
	Name  string
	Price decimal.Decimal
	Stock int
}

// Store is the transactional persistence boundary of the orders context.
// InTx hands the callback a Store scoped to one database transaction; every
// mutation of a consolidation run goes through that scoped Store so a
// failure at any step rolls back the whole run.
type Store interface {
	// InTx runs fn inside a transaction
	InTx(ctx context.Context, fn func(tx Store) error) error

	// LockCustomerDay serializes consolidation per customer per calendar
	// day for the duration of the surrounding transaction
	LockCustomerDay(ctx context.Context, clerkID string, day time.Time) error

	// FindByPaymentID returns the order holding the given payment
	// reference, or nil when none exists
	FindByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)

	// FindPending returns the customer's pending order created within
	// [from, to], or nil when none exists
	FindPending(ctx context.Context, clerkID string, from, to time.Time) (*domain.Order, error)

	// Create persists a new order
	Create(ctx context.Context, order *domain.Order) error

	// Update persists the order and its items
	Update(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id uint) (*domain.Order, error)

	// ListByClerkID retrieves a customer's orders, newest first
	ListByClerkID(ctx context.Context, clerkID string) ([]*domain.Order, error)

	// ListAll retrieves every order with customer info, newest first
	ListAll(ctx context.Context) ([]*domain.Order, error)

	// OwnedBy reports whether the order belongs to the customer
	OwnedBy(ctx context.Context, orderID uint, clerkID string) (bool, error)

	// GetProduct reads the current catalog state of a product, or nil
	// when the reference is dangling
	GetProduct(ctx context.Context, id uint) (*ProductInfo, error)

	// DecrementStock atomically decrements a product's stock, failing
	// when the decrement would drive stock negative
	DecrementStock(ctx context.Context, productID uint, quantity int) error
}

// EventPublisher defines the interface for publishing order events
type EventPublisher interface {
	// PublishOrderCreated publishes an order created event
	PublishOrderCreated(ctx context.Context, order *domain.Order) error

	// PublishOrderMerged publishes an event after items merged into an order
	PublishOrderMerged(ctx context.Context, order *domain.Order) error

	// PublishStatusChanged publishes an order status change event
	PublishStatusChanged(ctx context.Context, order *domain.Order) error
}

// ReviewReader reports which orders already carry a review
type ReviewReader interface {
	// ReviewedOrderIDs returns the subset of orderIDs that have at least
	// one review
	ReviewedOrderIDs(ctx context.Context, orderIDs []uint) (map[uint]bool, error)
}

// UserResolver maps a verified identity to the internal user record,
// creating it on first sight
type UserResolver interface {
	Resolve(ctx context.Context, clerkID, email, name string) (uint, error)
}
