package ports

import (
	"context"

	"go-shop/internal/reviews/domain"
)

// Repository is the persistence boundary of the reviews context
type Repository interface {
	// Create persists a new review. A second review for the same
	// (order, product, user) fails with a conflict.
	Create(ctx context.Context, review *domain.Review) error

	// ListByProduct retrieves a product's reviews, newest first
	ListByProduct(ctx context.Context, productID uint) ([]*domain.Review, error)

	// ListAll retrieves every review with product and customer names,
	// newest first
	ListAll(ctx context.Context) ([]*domain.Review, error)

	// ReviewedOrderIDs returns the subset of orderIDs that have at least
	// one review
	ReviewedOrderIDs(ctx context.Context, orderIDs []uint) (map[uint]bool, error)

	// AggregateForProduct recomputes a product's review aggregate
	AggregateForProduct(ctx context.Context, productID uint) (average float64, total int, err error)
}

// OrderChecker verifies order ownership before accepting a review
type OrderChecker interface {
	OwnedBy(ctx context.Context, orderID uint, clerkID string) (bool, error)
}

// RatingUpdater pushes a recomputed review aggregate onto the catalog
type RatingUpdater interface {
	ApplyRating(ctx context.Context, productID uint, average float64, total int) error
}

// UserResolver maps a verified identity to the internal user record,
// creating it on first sight
type UserResolver interface {
	Resolve(ctx context.Context, clerkID, email, name string) (uint, error)
}
