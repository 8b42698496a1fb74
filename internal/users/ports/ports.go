package ports

import (
	"context"

	"go-shop/internal/users/domain"
)

// Repository is the persistence boundary of the users context
type Repository interface {
	// FindByClerkID returns the user for the identity subject, or nil
	// when none exists
	FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error)

	// GetByID retrieves a user by internal ID
	GetByID(ctx context.Context, id uint) (*domain.User, error)

	// Create persists a new user. A concurrent insert for the same
	// ClerkID resolves to the existing row.
	Create(ctx context.Context, user *domain.User) error

	// SetProcessorCustomerID stores the payment processor's customer
	// reference on the user
	SetProcessorCustomerID(ctx context.Context, userID uint, customerID string) error

	// ListCustomers retrieves every user, newest first
	ListCustomers(ctx context.Context) ([]*domain.User, error)

	// ListAddresses retrieves a user's addresses, default first
	ListAddresses(ctx context.Context, userID uint) ([]*domain.Address, error)

	// GetAddress retrieves one of the user's addresses
	GetAddress(ctx context.Context, userID, addressID uint) (*domain.Address, error)

	// CountAddresses counts a user's addresses
	CountAddresses(ctx context.Context, userID uint) (int64, error)

	// CreateAddress persists a new address
	CreateAddress(ctx context.Context, address *domain.Address) error

	// UpdateAddress persists address changes
	UpdateAddress(ctx context.Context, address *domain.Address) error

	// DeleteAddress removes one of the user's addresses
	DeleteAddress(ctx context.Context, userID, addressID uint) error

	// ClearDefaultAddress unsets the default flag on the user's addresses
	ClearDefaultAddress(ctx context.Context, userID uint) error

	// ProductExists reports whether a catalog product exists
	ProductExists(ctx context.Context, productID uint) (bool, error)

	// ListWishlist retrieves the user's wishlist joined with product state
	ListWishlist(ctx context.Context, userID uint) ([]*domain.WishlistEntry, error)

	// AddWishlistItem adds a product to the user's wishlist; adding an
	// already-listed product is a no-op
	AddWishlistItem(ctx context.Context, userID, productID uint) error

	// RemoveWishlistItem removes a product from the user's wishlist
	RemoveWishlistItem(ctx context.Context, userID, productID uint) error
}
