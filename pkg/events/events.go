package events

import "time"

// Exchange names
const (
	ExchangeOrders   = "orders.events"
	ExchangePayments = "payments.events"
)

// Routing keys
const (
	RoutingKeyOrderCreated       = "order.created"
	RoutingKeyOrderMerged        = "order.merged"
	RoutingKeyOrderStatusChanged = "order.status_changed"
	RoutingKeyPaymentSucceeded   = "payment.succeeded"
)

// OrderEvent is published when an order is created, merged into, or moved
// to a new status.
type OrderEvent struct {
	Version   string            `json:"version"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	TraceID   string            `json:"trace_id"`
	Payload   OrderEventPayload `json:"payload"`
}

// OrderEventPayload contains order data
type OrderEventPayload struct {
	OrderID    uint   `json:"order_id"`
	ClerkID    string `json:"clerk_id"`
	Status     string `json:"status"`
	TotalPrice string `json:"total_price"`
	ItemCount  int    `json:"item_count"`
}

// NewOrderEvent creates an order event with the given type and routing key
// semantics (order.created, order.merged, order.status_changed).
func NewOrderEvent(eventType string, orderID uint, clerkID, status, totalPrice string, itemCount int, traceID string) *OrderEvent {
	return &OrderEvent{
		Version:   "1.0",
		EventType: eventType,
		Timestamp: time.Now(),
		TraceID:   traceID,
		Payload: OrderEventPayload{
			OrderID:    orderID,
			ClerkID:    clerkID,
			Status:     status,
			TotalPrice: totalPrice,
			ItemCount:  itemCount,
		},
	}
}

// PaymentSucceededEvent carries a confirmed payment from the webhook to the
// order consolidation consumer. The items and address travel exactly as the
// processor delivered them in the intent metadata: JSON-encoded strings.
type PaymentSucceededEvent struct {
	Version   string                  `json:"version"`
	EventType string                  `json:"event_type"`
	Timestamp time.Time               `json:"timestamp"`
	TraceID   string                  `json:"trace_id"`
	Payload   PaymentSucceededPayload `json:"payload"`
}

// PaymentSucceededPayload contains the payment reference and the intent metadata
type PaymentSucceededPayload struct {
	PaymentID       string `json:"payment_id"`
	UserID          string `json:"user_id"`
	ClerkID         string `json:"clerk_id"`
	OrderItems      string `json:"order_items"`
	ShippingAddress string `json:"shipping_address"`
	TotalPrice      string `json:"total_price"`
}

// NewPaymentSucceededEvent creates a payment.succeeded event
func NewPaymentSucceededEvent(payload PaymentSucceededPayload, traceID string) *PaymentSucceededEvent {
	return &PaymentSucceededEvent{
		Version:   "1.0",
		EventType: "payment.succeeded",
		Timestamp: time.Now(),
		TraceID:   traceID,
		Payload:   payload,
	}
}
