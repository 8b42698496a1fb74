package adapters

import (
	"context"

	"go-shop/internal/orders/domain"
	"go-shop/pkg/events"
	"go-shop/pkg/logger"
	"go-shop/pkg/rabbitmq"
)

// RabbitMQPublisher implements ports.EventPublisher using RabbitMQ
type RabbitMQPublisher struct {
	publisher *rabbitmq.Publisher
	log       *logger.Logger
}

// NewRabbitMQPublisher creates a new RabbitMQ event publisher
func NewRabbitMQPublisher(publisher *rabbitmq.Publisher, log *logger.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		publisher: publisher,
		log:       log,
	}
}

// PublishOrderCreated publishes an order created event
func (p *RabbitMQPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publishOrder(ctx, events.RoutingKeyOrderCreated, order)
}

// PublishOrderMerged publishes an event after items merged into an order
func (p *RabbitMQPublisher) PublishOrderMerged(ctx context.Context, order *domain.Order) error {
	return p.publishOrder(ctx, events.RoutingKeyOrderMerged, order)
}

// PublishStatusChanged publishes an order status change event
func (p *RabbitMQPublisher) PublishStatusChanged(ctx context.Context, order *domain.Order) error {
	return p.publishOrder(ctx, events.RoutingKeyOrderStatusChanged, order)
}

func (p *RabbitMQPublisher) publishOrder(ctx context.Context, routingKey string, order *domain.Order) error {
	traceID := logger.GetTraceID(ctx)

	event := events.NewOrderEvent(
		routingKey,
		order.ID,
		order.ClerkID,
		string(order.Status),
		order.TotalPrice.StringFixed(2),
		len(order.Items),
		traceID,
	)

	return p.publisher.Publish(ctx, routingKey, event)
}
