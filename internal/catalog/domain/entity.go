package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"go-shop/pkg/errors"
)

// UnitType is the unit a product is sold in
type UnitType string

const (
	UnitPieces UnitType = "pieces"
	UnitKg     UnitType = "kg"
	UnitLiters UnitType = "liters"
)

var validUnits = map[UnitType]bool{
	UnitPieces: true,
	UnitKg:     true,
	UnitLiters: true,
}

// Product represents a catalog product
type Product struct {
	ID            uint
	Name          string
	Description   string
	Price         decimal.Decimal
	Stock         int
	Images        []string
	CategoryID    uint
	CategoryName  string
	UnitType      UnitType
	UnitOptions   []string
	AverageRating float64
	TotalReviews  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the product's invariants
func (p *Product) Validate() error {
	if p.Name == "" {
		return errors.NewValidation("product name is required", nil)
	}
	if p.Price.IsNegative() {
		return errors.NewValidation("product price cannot be negative", nil)
	}
	if p.Stock < 0 {
		return errors.NewValidation("product stock cannot be negative", nil)
	}
	if p.CategoryID == 0 {
		return errors.NewValidation("product category is required", nil)
	}
	if !validUnits[p.UnitType] {
		return errors.NewValidation("unit type must be one of pieces, kg, liters", nil)
	}
	return nil
}

// Category represents a product category
type Category struct {
	ID           uint
	Name         string
	Icon         string
	Image        string
	IsActive     bool
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the category's invariants
func (c *Category) Validate() error {
	if c.Name == "" {
		return errors.NewValidation("category name is required", nil)
	}
	return nil
}

// NewProductNotFound creates a not found error for a product
func NewProductNotFound(id uint) error {
	return errors.NewNotFound("product", id)
}

// NewCategoryNotFound creates a not found error for a category
func NewCategoryNotFound(id uint) error {
	return errors.NewNotFound("category", id)
}
