package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"go-shop/pkg/errors"
)

// User represents a customer account. ClerkID is the identity provider's
// subject and is the key every other context addresses the customer by.
type User struct {
	ID                  uint
	ClerkID             string
	Email               string
	Name                string
	ProcessorCustomerID string
	CreatedAt           time.Time
}

// Address is a saved shipping address. At most one address per user is
// the default.
type Address struct {
	ID        uint
	UserID    uint
	FullName  string
	Street    string
	City      string
	State     string
	Zip       string
	Phone     string
	IsDefault bool
	CreatedAt time.Time
}

// Validate checks the address's invariants
func (a *Address) Validate() error {
	if a.FullName == "" || a.Street == "" || a.City == "" || a.State == "" || a.Zip == "" {
		return errors.NewValidation("fullName, street, city, state and zip are required", nil)
	}
	return nil
}

// WishlistEntry is a wishlist item joined with its product's current state
type WishlistEntry struct {
	ProductID uint
	Name      string
	Price     decimal.Decimal
	Image     string
	Stock     int
	AddedAt   time.Time
}

// NewUserNotFound creates a not found error for a user
func NewUserNotFound(id interface{}) error {
	return errors.NewNotFound("user", id)
}

// NewAddressNotFound creates a not found error for an address
func NewAddressNotFound(id uint) error {
	return errors.NewNotFound("address", id)
}
