package application

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop/internal/payments/domain"
	"go-shop/internal/payments/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/logger"
)

type mockGateway struct {
	customers     int
	intents       []ports.IntentParams
	badSignature  bool
	nextIntentID  string
	nextClientKey string
}

func (m *mockGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	m.customers++
	return fmt.Sprintf("cus_%d", m.customers), nil
}

func (m *mockGateway) CreateIntent(ctx context.Context, params ports.IntentParams) (*domain.Intent, error) {
	m.intents = append(m.intents, params)
	return &domain.Intent{
		ID:           m.nextIntentID,
		ClientSecret: m.nextClientKey,
		Amount:       decimal.New(params.AmountCents, -2),
	}, nil
}

func (m *mockGateway) VerifySignature(payload []byte, header string) error {
	if m.badSignature {
		return errors.NewUnauthorized("invalid webhook signature")
	}
	return nil
}

type mockDirectory struct {
	customer *ports.CustomerInfo
	attached string
}

func (m *mockDirectory) Lookup(ctx context.Context, clerkID, email, name string) (*ports.CustomerInfo, error) {
	return m.customer, nil
}

func (m *mockDirectory) AttachProcessorCustomer(ctx context.Context, userID uint, customerID string) error {
	m.attached = customerID
	m.customer.ProcessorCustomerID = customerID
	return nil
}

type mockProducts struct {
	products map[uint]*ports.CatalogProduct
}

func (m *mockProducts) GetProduct(ctx context.Context, id uint) (*ports.CatalogProduct, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, errors.NewNotFound("product", id)
	}
	return p, nil
}

type mockPlacer struct {
	placed []ports.PlacedOrder
	err    error
}

func (m *mockPlacer) PlaceFromPayment(ctx context.Context, order ports.PlacedOrder) error {
	if m.err != nil {
		return m.err
	}
	m.placed = append(m.placed, order)
	return nil
}

type mockQueue struct {
	published []string
	err       error
}

func (m *mockQueue) PublishPaymentSucceeded(ctx context.Context, paymentID string, metadata domain.Metadata) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, paymentID)
	return nil
}

func fixtures() (*mockGateway, *mockDirectory, *mockProducts, *mockPlacer) {
	gateway := &mockGateway{nextIntentID: "pi_1", nextClientKey: "pi_1_secret"}
	directory := &mockDirectory{customer: &ports.CustomerInfo{UserID: 7, Email: "jane@example.com", Name: "Jane Roe"}}
	products := &mockProducts{products: map[uint]*ports.CatalogProduct{
		1: {ID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Stock: 10, Image: "apples.jpg"},
		2: {ID: 2, Name: "Milk", Price: decimal.NewFromFloat(1.20), Stock: 5},
	}}
	return gateway, directory, products, &mockPlacer{}
}

func newTestUseCase(gateway *mockGateway, directory *mockDirectory, products *mockProducts, placer *mockPlacer, queue ports.EventQueue) *PaymentUseCase {
	return NewPaymentUseCase(gateway, directory, products, placer, queue, logger.New("payments-test", "error", "console"))
}

func sampleAddress() domain.ShippingAddress {
	return domain.ShippingAddress{FullName: "Jane Roe", Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62704"}
}

func TestCreateIntentPricing(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	uc := newTestUseCase(gateway, directory, products, placer, nil)

	result, err := uc.CreateIntent(context.Background(), "clerk_1", "jane@example.com", "Jane Roe",
		[]RequestedItem{{ProductID: 1, Quantity: 4}, {ProductID: 2, Quantity: 1}},
		sampleAddress(),
	)
	require.NoError(t, err)

	// subtotal 11.20, shipping 10.00, tax 8% of subtotal = 0.90
	assert.Equal(t, "11.20", result.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", result.Totals.Shipping.StringFixed(2))
	assert.Equal(t, "0.90", result.Totals.Tax.StringFixed(2))
	assert.Equal(t, "22.10", result.Totals.Total.StringFixed(2))

	require.Len(t, gateway.intents, 1)
	params := gateway.intents[0]
	assert.Equal(t, int64(2210), params.AmountCents)
	assert.Equal(t, "usd", params.Currency)
	assert.Equal(t, "22.10", params.Metadata["totalPrice"])
	assert.Equal(t, "7", params.Metadata["userId"])
	assert.Equal(t, "clerk_1", params.Metadata["clerkId"])

	// Snapshots travel in metadata priced from the catalog
	var items []domain.CheckoutItem
	require.NoError(t, json.Unmarshal([]byte(params.Metadata["orderItems"]), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Apples", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.NewFromFloat(2.50)))
	assert.Equal(t, "apples.jpg", items[0].Image)
}

func TestCreateIntentEnsuresCustomerOnce(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	uc := newTestUseCase(gateway, directory, products, placer, nil)

	_, err := uc.CreateIntent(context.Background(), "clerk_1", "jane@example.com", "Jane Roe",
		[]RequestedItem{{ProductID: 1, Quantity: 1}}, sampleAddress())
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.customers)
	assert.Equal(t, "cus_1", directory.attached)

	_, err = uc.CreateIntent(context.Background(), "clerk_1", "jane@example.com", "Jane Roe",
		[]RequestedItem{{ProductID: 1, Quantity: 1}}, sampleAddress())
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.customers, "existing processor customer must be reused")
}

func TestCreateIntentValidation(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	uc := newTestUseCase(gateway, directory, products, placer, nil)

	_, err := uc.CreateIntent(context.Background(), "clerk_1", "", "", nil, sampleAddress())
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.CreateIntent(context.Background(), "clerk_1", "", "",
		[]RequestedItem{{ProductID: 1, Quantity: 0}}, sampleAddress())
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.CreateIntent(context.Background(), "clerk_1", "", "",
		[]RequestedItem{{ProductID: 99, Quantity: 1}}, sampleAddress())
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = uc.CreateIntent(context.Background(), "clerk_1", "", "",
		[]RequestedItem{{ProductID: 2, Quantity: 50}}, sampleAddress())
	assert.True(t, errors.Is(err, errors.CodeOutOfStock))
	assert.Empty(t, gateway.intents, "no intent may be created for a failed checkout")
}

func webhookPayload(t *testing.T, eventType, paymentID string, metadata domain.Metadata) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       paymentID,
				"metadata": metadata.ToMap(),
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func sampleMetadata(t *testing.T) domain.Metadata {
	t.Helper()
	metadata, err := domain.NewMetadata(7, "clerk_1",
		[]domain.CheckoutItem{{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 4}},
		sampleAddress(),
		decimal.NewFromFloat(22.10),
	)
	require.NoError(t, err)
	return metadata
}

func TestIngestWebhookRejectsBadSignature(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	gateway.badSignature = true
	uc := newTestUseCase(gateway, directory, products, placer, nil)

	err := uc.IngestWebhook(context.Background(), webhookPayload(t, "payment_intent.succeeded", "pi_1", sampleMetadata(t)), "t=1,v1=bad")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
	assert.Empty(t, placer.placed)
}

func TestIngestWebhookIgnoresOtherEvents(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	uc := newTestUseCase(gateway, directory, products, placer, nil)

	err := uc.IngestWebhook(context.Background(), webhookPayload(t, "payment_intent.created", "pi_1", sampleMetadata(t)), "sig")
	require.NoError(t, err)
	assert.Empty(t, placer.placed)
}

func TestIngestWebhookSynchronousPath(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	uc := newTestUseCase(gateway, directory, products, placer, nil)

	err := uc.IngestWebhook(context.Background(), webhookPayload(t, "payment_intent.succeeded", "pi_9", sampleMetadata(t)), "sig")
	require.NoError(t, err)

	require.Len(t, placer.placed, 1)
	placed := placer.placed[0]
	assert.Equal(t, "pi_9", placed.PaymentID)
	assert.Equal(t, uint(7), placed.UserID)
	assert.Equal(t, "clerk_1", placed.ClerkID)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, "Apples", placed.Items[0].Name)
	assert.Equal(t, 4, placed.Items[0].Quantity)
	assert.Equal(t, "Springfield", placed.ShippingAddress.City)
	assert.Equal(t, "22.10", placed.TotalPrice.StringFixed(2))
}

func TestIngestWebhookPrefersQueue(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	queue := &mockQueue{}
	uc := newTestUseCase(gateway, directory, products, placer, queue)

	err := uc.IngestWebhook(context.Background(), webhookPayload(t, "payment_intent.succeeded", "pi_9", sampleMetadata(t)), "sig")
	require.NoError(t, err)

	assert.Equal(t, []string{"pi_9"}, queue.published)
	assert.Empty(t, placer.placed, "queued payment must not also consolidate synchronously")
}

func TestIngestWebhookFallsBackWhenQueueDown(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	queue := &mockQueue{err: errors.NewInternal("broker down", nil)}
	uc := newTestUseCase(gateway, directory, products, placer, queue)

	err := uc.IngestWebhook(context.Background(), webhookPayload(t, "payment_intent.succeeded", "pi_9", sampleMetadata(t)), "sig")
	require.NoError(t, err)
	require.Len(t, placer.placed, 1, "queue failure must fall back to synchronous consolidation")
}

func TestProcessSucceededRejectsMalformedMetadata(t *testing.T) {
	gateway, directory, products, placer := fixtures()
	uc := newTestUseCase(gateway, directory, products, placer, nil)

	metadata := sampleMetadata(t)
	metadata.OrderItems = "{broken"
	err := uc.ProcessSucceeded(context.Background(), "pi_1", metadata)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	metadata = sampleMetadata(t)
	metadata.UserID = "not-a-number"
	err = uc.ProcessSucceeded(context.Background(), "pi_1", metadata)
	assert.True(t, errors.Is(err, errors.CodeValidation))
}
