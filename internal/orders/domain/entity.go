package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// statusRank orders the linear pending -> shipped -> delivered progression.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusShipped:   1,
	OrderStatusDelivered: 2,
}

// ParseStatus validates a literal status value
func ParseStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := statusRank[status]; !ok {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// OrderItem is a line item with snapshots taken at the time the line was
// first added. The snapshots do not track later catalog changes.
type OrderItem struct {
	ProductID uint
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Image     string
}

// PaymentResult references the external payment for an order
type PaymentResult struct {
	ID     string
	Status string
}

// Address is the shipping snapshot copied onto the order at creation
type Address struct {
	FullName string
	Street   string
	City     string
	State    string
	Zip      string
	Phone    string
}

// Order represents the order aggregate
type Order struct {
	ID              uint
	UserID          uint
	ClerkID         string
	Items           []OrderItem
	ShippingAddress Address
	PaymentResult   PaymentResult
	TotalPrice      decimal.Decimal
	Status          OrderStatus
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// HasReviewed is a read-side annotation, not a persisted field
	HasReviewed bool

	// CustomerName/CustomerEmail are populated only on admin listings
	CustomerName  string
	CustomerEmail string
}

// MergeItem folds a requested line into the order. A line for the same
// product gains the requested quantity and keeps its existing snapshots;
// a new product is appended as a new line.
func (o *Order) MergeItem(item OrderItem) {
	for i := range o.Items {
		if o.Items[i].ProductID == item.ProductID {
			o.Items[i].Quantity += item.Quantity
			return
		}
	}
	o.Items = append(o.Items, item)
}

// SnapshotTotal sums price x quantity over the order's line snapshots
func (o *Order) SnapshotTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Transition moves the order to the given status. The progression is
// strictly forward; moving to the current status is an idempotent no-op.
// ShippedAt and DeliveredAt are set exactly once, on first entry.
func (o *Order) Transition(to OrderStatus, now time.Time) error {
	if _, ok := statusRank[to]; !ok {
		return ErrInvalidStatus
	}
	if statusRank[to] < statusRank[o.Status] {
		return ErrBackwardTransition
	}

	o.Status = to

	if to == OrderStatusShipped && o.ShippedAt == nil {
		t := now
		o.ShippedAt = &t
	}
	if to == OrderStatusDelivered && o.DeliveredAt == nil {
		t := now
		o.DeliveredAt = &t
	}
	return nil
}
