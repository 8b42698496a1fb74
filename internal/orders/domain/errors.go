package domain

import "go-shop/pkg/errors"

// Domain-specific errors
var (
	ErrNoItems            = errors.NewValidation("order has no items", nil)
	ErrInvalidQuantity    = errors.NewValidation("item quantity must be greater than 0", nil)
	ErrInvalidStatus      = errors.NewValidation("status must be one of pending, shipped, delivered", nil)
	ErrBackwardTransition = errors.NewValidation("order status cannot move backward", nil)
)

// NewOrderNotFound creates a not found error with the order ID
func NewOrderNotFound(id uint) error {
	return errors.NewNotFound("order", id)
}

// NewProductNotFound creates a not found error for a dangling product reference
func NewProductNotFound(id uint) error {
	return errors.NewNotFound("product", id)
}
