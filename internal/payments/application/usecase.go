package application

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"go-shop/internal/payments/domain"
	"go-shop/internal/payments/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/logger"
)

// PaymentUseCase handles payment business logic
type PaymentUseCase struct {
	gateway   ports.Gateway
	customers ports.CustomerDirectory
	products  ports.ProductReader
	orders    ports.OrderPlacer
	queue     ports.EventQueue
	log       *logger.Logger
}

// NewPaymentUseCase creates a new payment use case. queue may be nil, in
// which case confirmed payments are consolidated synchronously inside the
// webhook request.
func NewPaymentUseCase(
	gateway ports.Gateway,
	customers ports.CustomerDirectory,
	products ports.ProductReader,
	orders ports.OrderPlacer,
	queue ports.EventQueue,
	log *logger.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		gateway:   gateway,
		customers: customers,
		products:  products,
		orders:    orders,
		queue:     queue,
		log:       log,
	}
}

// RequestedItem is one product the client wants to pay for. Quantity is
// the only thing taken at face value; name and price come from the catalog.
type RequestedItem struct {
	ProductID uint
	Quantity  int
}

// IntentResult is a created intent with its price breakdown
type IntentResult struct {
	Intent *domain.Intent
	Totals domain.Totals
}

// CreateIntent prices the checkout from current catalog state, ensures the
// caller has a processor customer, and creates a payment intent whose
// metadata carries everything the webhook needs to place the order later.
func (uc *PaymentUseCase) CreateIntent(
	ctx context.Context,
	clerkID, email, name string,
	requested []RequestedItem,
	address domain.ShippingAddress,
) (*IntentResult, error) {
	if len(requested) == 0 {
		return nil, errors.NewValidation("checkout has no items", nil)
	}

	items := make([]domain.CheckoutItem, 0, len(requested))
	for _, req := range requested {
		if req.Quantity <= 0 {
			return nil, errors.NewValidation("item quantity must be greater than 0", nil)
		}
		product, err := uc.products.GetProduct(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < req.Quantity {
			return nil, errors.NewOutOfStock(product.Name)
		}
		items = append(items, domain.CheckoutItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  req.Quantity,
			Image:     product.Image,
		})
	}

	totals := domain.ComputeTotals(items)

	customer, err := uc.customers.Lookup(ctx, clerkID, email, name)
	if err != nil {
		return nil, err
	}
	if customer.ProcessorCustomerID == "" {
		customerID, err := uc.gateway.CreateCustomer(ctx, customer.Email, customer.Name)
		if err != nil {
			return nil, err
		}
		if err := uc.customers.AttachProcessorCustomer(ctx, customer.UserID, customerID); err != nil {
			return nil, err
		}
		customer.ProcessorCustomerID = customerID
	}

	metadata, err := domain.NewMetadata(customer.UserID, clerkID, items, address, totals.Total)
	if err != nil {
		return nil, err
	}

	intent, err := uc.gateway.CreateIntent(ctx, ports.IntentParams{
		AmountCents: totals.Total.Shift(2).IntPart(),
		Currency:    "usd",
		CustomerID:  customer.ProcessorCustomerID,
		Metadata:    metadata.ToMap(),
	})
	if err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Info("payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("clerk_id", clerkID),
		zap.String("amount", totals.Total.StringFixed(2)),
	)

	return &IntentResult{Intent: intent, Totals: totals}, nil
}

// webhookEvent is the slice of the processor's event envelope we read
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// IngestWebhook authenticates and routes a webhook delivery. A confirmed
// payment is handed to the consolidation queue when one is configured;
// otherwise it is consolidated before returning. Either way an
// authenticated delivery always succeeds: redeliveries of already-placed
// payments are absorbed by the idempotency guard downstream.
func (uc *PaymentUseCase) IngestWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := uc.gateway.VerifySignature(payload, signature); err != nil {
		return err
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return errors.NewValidation("malformed webhook payload", err.Error())
	}

	if event.Type != "payment_intent.succeeded" {
		uc.log.WithContext(ctx).Debug("webhook event ignored", zap.String("type", event.Type))
		return nil
	}

	metadata := domain.MetadataFromMap(event.Data.Object.Metadata)
	paymentID := event.Data.Object.ID

	if uc.queue != nil {
		err := uc.queue.PublishPaymentSucceeded(ctx, paymentID, metadata)
		if err == nil {
			uc.log.WithContext(ctx).Info("payment queued for consolidation",
				zap.String("payment_id", paymentID),
			)
			return nil
		}
		uc.log.WithContext(ctx).Error("payment queue unavailable, consolidating synchronously",
			zap.Error(err),
			zap.String("payment_id", paymentID),
		)
	}

	return uc.ProcessSucceeded(ctx, paymentID, metadata)
}

// ProcessSucceeded turns a confirmed payment into an order. It is called
// by the queue consumer, or synchronously from the webhook when no queue
// is configured.
func (uc *PaymentUseCase) ProcessSucceeded(ctx context.Context, paymentID string, metadata domain.Metadata) error {
	items, err := metadata.DecodeItems()
	if err != nil {
		return err
	}
	address, err := metadata.DecodeAddress()
	if err != nil {
		return err
	}
	userID, err := metadata.DecodeUserID()
	if err != nil {
		return err
	}

	err = uc.orders.PlaceFromPayment(ctx, ports.PlacedOrder{
		UserID:          userID,
		ClerkID:         metadata.ClerkID,
		Items:           items,
		ShippingAddress: address,
		TotalPrice:      metadata.DecodeTotal(),
		PaymentID:       paymentID,
	})
	if err != nil {
		return err
	}

	uc.log.WithContext(ctx).Info("payment consolidated into order",
		zap.String("payment_id", paymentID),
		zap.String("clerk_id", metadata.ClerkID),
	)
	return nil
}
