package domain

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"go-shop/pkg/errors"
)

// Pricing policy applied to every intent
var (
	ShippingFee = decimal.NewFromFloat(10.00)
	TaxRate     = decimal.NewFromFloat(0.08)
)

// CheckoutItem is one line of a checkout. Name and Price are snapshotted
// from the catalog when the intent is created, never taken from the client.
type CheckoutItem struct {
	ProductID uint            `json:"product"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// ShippingAddress travels through the intent metadata to the order
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone"`
}

// Intent is the processor's payment intent handed back to the client
type Intent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
}

// Totals breaks an intent's amount down
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals prices a checkout: item subtotal, flat shipping, tax on
// the subtotal.
func ComputeTotals(items []CheckoutItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Shipping: ShippingFee,
		Tax:      tax,
		Total:    subtotal.Add(ShippingFee).Add(tax),
	}
}

// Metadata is the order payload carried on the intent so the webhook can
// reconstruct the purchase without trusting the client again. Items and
// address are JSON-encoded strings: processor metadata values are flat.
type Metadata struct {
	UserID          string `json:"userId"`
	ClerkID         string `json:"clerkId"`
	OrderItems      string `json:"orderItems"`
	ShippingAddress string `json:"shippingAddress"`
	TotalPrice      string `json:"totalPrice"`
}

// NewMetadata encodes the checkout into intent metadata
func NewMetadata(userID uint, clerkID string, items []CheckoutItem, address ShippingAddress, total decimal.Decimal) (Metadata, error) {
	encodedItems, err := json.Marshal(items)
	if err != nil {
		return Metadata{}, errors.NewInternal("failed to encode order items", err)
	}
	encodedAddress, err := json.Marshal(address)
	if err != nil {
		return Metadata{}, errors.NewInternal("failed to encode shipping address", err)
	}
	return Metadata{
		UserID:          strconv.FormatUint(uint64(userID), 10),
		ClerkID:         clerkID,
		OrderItems:      string(encodedItems),
		ShippingAddress: string(encodedAddress),
		TotalPrice:      total.StringFixed(2),
	}, nil
}

// ToMap flattens the metadata for the processor API
func (m Metadata) ToMap() map[string]string {
	return map[string]string{
		"userId":          m.UserID,
		"clerkId":         m.ClerkID,
		"orderItems":      m.OrderItems,
		"shippingAddress": m.ShippingAddress,
		"totalPrice":      m.TotalPrice,
	}
}

// MetadataFromMap reads the metadata back off a webhook event
func MetadataFromMap(values map[string]string) Metadata {
	return Metadata{
		UserID:          values["userId"],
		ClerkID:         values["clerkId"],
		OrderItems:      values["orderItems"],
		ShippingAddress: values["shippingAddress"],
		TotalPrice:      values["totalPrice"],
	}
}

// DecodeItems parses the JSON-encoded order items
func (m Metadata) DecodeItems() ([]CheckoutItem, error) {
	var items []CheckoutItem
	if err := json.Unmarshal([]byte(m.OrderItems), &items); err != nil {
		return nil, errors.NewValidation("malformed order items in payment metadata", err.Error())
	}
	return items, nil
}

// DecodeAddress parses the JSON-encoded shipping address
func (m Metadata) DecodeAddress() (ShippingAddress, error) {
	var address ShippingAddress
	if err := json.Unmarshal([]byte(m.ShippingAddress), &address); err != nil {
		return ShippingAddress{}, errors.NewValidation("malformed shipping address in payment metadata", err.Error())
	}
	return address, nil
}

// DecodeUserID parses the numeric user ID
func (m Metadata) DecodeUserID() (uint, error) {
	id, err := strconv.ParseUint(m.UserID, 10, 32)
	if err != nil {
		return 0, errors.NewValidation("malformed user id in payment metadata", m.UserID)
	}
	return uint(id), nil
}

// DecodeTotal parses the total price, tolerating an absent value
func (m Metadata) DecodeTotal() decimal.Decimal {
	total, err := decimal.NewFromString(m.TotalPrice)
	if err != nil {
		return decimal.Zero
	}
	return total
}
