package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"go-shop/internal/payments/domain"
)

// IntentParams are the inputs for creating a payment intent
type IntentParams struct {
	AmountCents int64
	Currency    string
	CustomerID  string
	Metadata    map[string]string
}

// Gateway is the payment processor boundary
type Gateway interface {
	// CreateCustomer registers a customer with the processor and returns
	// its reference
	CreateCustomer(ctx context.Context, email, name string) (string, error)

	// CreateIntent creates a payment intent
	CreateIntent(ctx context.Context, params IntentParams) (*domain.Intent, error)

	// VerifySignature authenticates a webhook delivery against the
	// shared endpoint secret
	VerifySignature(payload []byte, header string) error
}

// CustomerInfo is the slice of the user record payments needs
type CustomerInfo struct {
	UserID              uint
	Email               string
	Name                string
	ProcessorCustomerID string
}

// CustomerDirectory resolves identities to customer records and stores
// the processor's customer reference
type CustomerDirectory interface {
	// Lookup resolves the identity to a customer, creating the user
	// record on first sight
	Lookup(ctx context.Context, clerkID, email, name string) (*CustomerInfo, error)

	// AttachProcessorCustomer stores the processor's customer reference
	AttachProcessorCustomer(ctx context.Context, userID uint, customerID string) error
}

// CatalogProduct is the slice of the catalog payments needs
type CatalogProduct struct {
	ID    uint
	Name  string
	Price decimal.Decimal
	Stock int
	Image string
}

// ProductReader reads current catalog state for checkout validation
type ProductReader interface {
	GetProduct(ctx context.Context, id uint) (*CatalogProduct, error)
}

// PlacedOrder is a confirmed purchase handed to order consolidation
type PlacedOrder struct {
	UserID          uint
	ClerkID         string
	Items           []domain.CheckoutItem
	ShippingAddress domain.ShippingAddress
	TotalPrice      decimal.Decimal
	PaymentID       string
}

// OrderPlacer turns a confirmed payment into an order
type OrderPlacer interface {
	PlaceFromPayment(ctx context.Context, order PlacedOrder) error
}

// EventQueue hands confirmed payments to the asynchronous consolidation
// consumer
type EventQueue interface {
	PublishPaymentSucceeded(ctx context.Context, paymentID string, metadata domain.Metadata) error
}
