package adapters

import (
	"context"
	"encoding/json"

	"go-shop/internal/payments/application"
	"go-shop/internal/payments/domain"
	"go-shop/pkg/errors"
	"go-shop/pkg/events"
	"go-shop/pkg/logger"
	"go-shop/pkg/rabbitmq"
)

// consolidationQueue is the durable queue feeding the consolidation consumer
const consolidationQueue = "payments.consolidation"

// PaymentQueue implements ports.EventQueue using RabbitMQ
type PaymentQueue struct {
	publisher *rabbitmq.Publisher
}

// NewPaymentQueue creates a new payment event queue
func NewPaymentQueue(publisher *rabbitmq.Publisher) *PaymentQueue {
	return &PaymentQueue{publisher: publisher}
}

// PublishPaymentSucceeded hands a confirmed payment to the consolidation
// consumer
func (q *PaymentQueue) PublishPaymentSucceeded(ctx context.Context, paymentID string, metadata domain.Metadata) error {
	event := events.NewPaymentSucceededEvent(events.PaymentSucceededPayload{
		PaymentID:       paymentID,
		UserID:          metadata.UserID,
		ClerkID:         metadata.ClerkID,
		OrderItems:      metadata.OrderItems,
		ShippingAddress: metadata.ShippingAddress,
		TotalPrice:      metadata.TotalPrice,
	}, logger.GetTraceID(ctx))

	return q.publisher.Publish(ctx, events.RoutingKeyPaymentSucceeded, event)
}

// PaymentConsumer consumes payment.succeeded events and runs consolidation.
// A transiently failed run is nack'ed and redelivered; the idempotency guard
// makes the retry safe. Failures retrying cannot fix (malformed events,
// vanished products, insufficient stock) are dead-lettered for manual
// reconciliation instead.
type PaymentConsumer struct {
	consumer *rabbitmq.Consumer
	useCase  *application.PaymentUseCase
}

// NewPaymentConsumer creates a consumer bound to the payments exchange
func NewPaymentConsumer(conn *rabbitmq.Connection, useCase *application.PaymentUseCase, log *logger.Logger) (*PaymentConsumer, error) {
	consumer, err := rabbitmq.NewConsumer(
		conn,
		consolidationQueue,
		events.ExchangePayments,
		[]string{events.RoutingKeyPaymentSucceeded},
		log,
	)
	if err != nil {
		return nil, err
	}
	return &PaymentConsumer{consumer: consumer, useCase: useCase}, nil
}

// Start begins consuming until the context is cancelled
func (c *PaymentConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handle)
}

func (c *PaymentConsumer) handle(ctx context.Context, body []byte) error {
	var event events.PaymentSucceededEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return rabbitmq.Permanent(errors.NewValidation("malformed payment event", err.Error()))
	}

	metadata := domain.Metadata{
		UserID:          event.Payload.UserID,
		ClerkID:         event.Payload.ClerkID,
		OrderItems:      event.Payload.OrderItems,
		ShippingAddress: event.Payload.ShippingAddress,
		TotalPrice:      event.Payload.TotalPrice,
	}
	if err := c.useCase.ProcessSucceeded(ctx, event.Payload.PaymentID, metadata); err != nil {
		if isTerminal(err) {
			return rabbitmq.Permanent(err)
		}
		return err
	}
	return nil
}

// isTerminal reports whether consolidation failed in a way redelivery
// cannot fix. Internal errors (database down, lock timeout) stay
// retryable.
func isTerminal(err error) bool {
	return errors.Is(err, errors.CodeValidation) ||
		errors.Is(err, errors.CodeNotFound) ||
		errors.Is(err, errors.CodeOutOfStock) ||
		errors.Is(err, errors.CodeConflict)
}
