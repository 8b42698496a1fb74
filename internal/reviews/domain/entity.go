package domain

import (
	"time"

	"go-shop/pkg/errors"
)

// Review is a customer's rating of a product bought in a specific order.
// One review per (order, product, user).
type Review struct {
	ID        uint
	OrderID   uint
	ProductID uint
	UserID    uint
	Rating    int
	Comment   string
	CreatedAt time.Time

	// ProductName/CustomerName are populated only on listings
	ProductName  string
	CustomerName string
}

// Validate checks the review's invariants
func (r *Review) Validate() error {
	if r.OrderID == 0 || r.ProductID == 0 {
		return errors.NewValidation("order and product are required", nil)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return errors.NewValidation("rating must be between 1 and 5", nil)
	}
	return nil
}

// NewDuplicateReview creates the conflict error for a repeated review
func NewDuplicateReview() error {
	return errors.NewConflict("product already reviewed for this order")
}
