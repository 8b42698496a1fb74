package ports

import (
	"context"
	"time"

	"go-shop/internal/catalog/domain"
)

// ListFilter narrows and orders a product listing
type ListFilter struct {
	CategoryID uint
	Search     string
	Sort       string // price_asc, price_desc, rating, newest
}

// Repository is the persistence boundary of the catalog context
type Repository interface {
	// ListProducts retrieves products matching the filter
	ListProducts(ctx context.Context, filter ListFilter) ([]*domain.Product, error)

	// GetProduct retrieves a product by ID
	GetProduct(ctx context.Context, id uint) (*domain.Product, error)

	// CreateProduct persists a new product
	CreateProduct(ctx context.Context, product *domain.Product) error

	// UpdateProduct persists product changes
	UpdateProduct(ctx context.Context, product *domain.Product) error

	// DeleteProduct removes a product
	DeleteProduct(ctx context.Context, id uint) error

	// ApplyRating stores a recomputed review aggregate on the product
	ApplyRating(ctx context.Context, productID uint, average float64, total int) error

	// ListCategories retrieves categories ordered by display order
	ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error)

	// GetCategory retrieves a category by ID
	GetCategory(ctx context.Context, id uint) (*domain.Category, error)

	// CreateCategory persists a new category
	CreateCategory(ctx context.Context, category *domain.Category) error

	// UpdateCategory persists category changes
	UpdateCategory(ctx context.Context, category *domain.Category) error

	// DeleteCategory removes a category
	DeleteCategory(ctx context.Context, id uint) error

	// CountProductsInCategory counts the products referencing a category
	CountProductsInCategory(ctx context.Context, categoryID uint) (int64, error)
}

// Cache is a read-through cache over catalog listings. Implementations
// treat every failure as a miss so the catalog keeps serving from the
// repository when the cache is down.
type Cache interface {
	// GetProducts returns the cached listing for the key, or nil on a miss
	GetProducts(ctx context.Context, key string) ([]*domain.Product, error)

	// SetProducts caches the listing under the key for the TTL
	SetProducts(ctx context.Context, key string, products []*domain.Product, ttl time.Duration) error

	// InvalidateProducts drops every cached product listing
	InvalidateProducts(ctx context.Context) error

	// GetCategories returns the cached listing for the key, or nil on a miss
	GetCategories(ctx context.Context, key string) ([]*domain.Category, error)

	// SetCategories caches the listing under the key for the TTL
	SetCategories(ctx context.Context, key string, categories []*domain.Category, ttl time.Duration) error

	// InvalidateCategories drops every cached category listing
	InvalidateCategories(ctx context.Context) error
}
