package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop/internal/orders/domain"
	"go-shop/internal/orders/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/logger"
)

var testTime = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

// fakeStore is an in-memory ports.Store. InTx snapshots state before the
// callback and restores it on error, mirroring a transaction rollback.
type fakeStore struct {
	products      map[uint]*ports.ProductInfo
	orders        []*domain.Order
	nextID        uint
	lockedKeys    []string
	windows       []pendingWindow
	failDecrement map[uint]bool
	now           time.Time
}

type pendingWindow struct {
	from, to time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:      make(map[uint]*ports.ProductInfo),
		nextID:        1,
		failDecrement: make(map[uint]bool),
		now:           testTime,
	}
}

func (s *fakeStore) addProduct(id uint, name string, price float64, stock int) {
	s.products[id] = &ports.ProductInfo{ID: id, Name: name, Price: decimal.NewFromFloat(price), Stock: stock}
}

func (s *fakeStore) snapshot() (map[uint]*ports.ProductInfo, []*domain.Order) {
	products := make(map[uint]*ports.ProductInfo, len(s.products))
	for id, p := range s.products {
		cp := *p
		products[id] = &cp
	}
	orders := make([]*domain.Order, len(s.orders))
	for i, o := range s.orders {
		cp := *o
		cp.Items = append([]domain.OrderItem(nil), o.Items...)
		orders[i] = &cp
	}
	return products, orders
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx ports.Store) error) error {
	products, orders := s.snapshot()
	if err := fn(s); err != nil {
		s.products = products
		s.orders = orders
		return err
	}
	return nil
}

func (s *fakeStore) LockCustomerDay(ctx context.Context, clerkID string, day time.Time) error {
	s.lockedKeys = append(s.lockedKeys, clerkID+":"+day.Format("2006-01-02"))
	return nil
}

func (s *fakeStore) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.PaymentResult.ID == paymentID {
			return o, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindPending(ctx context.Context, clerkID string, from, to time.Time) (*domain.Order, error) {
	s.windows = append(s.windows, pendingWindow{from: from, to: to})
	for _, o := range s.orders {
		if o.ClerkID == clerkID && o.Status == domain.OrderStatusPending &&
			!o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			return o, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(ctx context.Context, order *domain.Order) error {
	order.ID = s.nextID
	s.nextID++
	order.CreatedAt = s.now
	s.orders = append(s.orders, order)
	return nil
}

func (s *fakeStore) Update(ctx context.Context, order *domain.Order) error {
	for i, o := range s.orders {
		if o.ID == order.ID {
			s.orders[i] = order
			return nil
		}
	}
	return domain.NewOrderNotFound(order.ID)
}

func (s *fakeStore) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, domain.NewOrderNotFound(id)
}

func (s *fakeStore) ListByClerkID(ctx context.Context, clerkID string) ([]*domain.Order, error) {
	var result []*domain.Order
	for _, o := range s.orders {
		if o.ClerkID == clerkID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.orders, nil
}

func (s *fakeStore) OwnedBy(ctx context.Context, orderID uint, clerkID string) (bool, error) {
	for _, o := range s.orders {
		if o.ID == orderID && o.ClerkID == clerkID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetProduct(ctx context.Context, id uint) (*ports.ProductInfo, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	p, ok := s.products[productID]
	if !ok || s.failDecrement[productID] || p.Stock < quantity {
		return errors.NewOutOfStock("")
	}
	p.Stock -= quantity
	return nil
}

type fakePublisher struct {
	created       []uint
	merged        []uint
	statusChanged []uint
}

func (p *fakePublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	p.created = append(p.created, order.ID)
	return nil
}

func (p *fakePublisher) PublishOrderMerged(ctx context.Context, order *domain.Order) error {
	p.merged = append(p.merged, order.ID)
	return nil
}

func (p *fakePublisher) PublishStatusChanged(ctx context.Context, order *domain.Order) error {
	p.statusChanged = append(p.statusChanged, order.ID)
	return nil
}

type fakeReviews struct {
	reviewed map[uint]bool
}

func (r *fakeReviews) ReviewedOrderIDs(ctx context.Context, orderIDs []uint) (map[uint]bool, error) {
	return r.reviewed, nil
}

func newTestUseCase(store *fakeStore, publisher *fakePublisher, reviews *fakeReviews) *OrderUseCase {
	var pub ports.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	var rev ports.ReviewReader
	if reviews != nil {
		rev = reviews
	}
	uc := NewOrderUseCase(store, pub, rev, logger.New("orders-test", "error", "console"), time.UTC)
	uc.now = func() time.Time { return testTime }
	return uc
}

func itemsOf(quantities map[uint]int, prices map[uint]float64) []domain.OrderItem {
	var items []domain.OrderItem
	for id, qty := range quantities {
		items = append(items, domain.OrderItem{
			ProductID: id,
			Name:      "product",
			Price:     decimal.NewFromFloat(prices[id]),
			Quantity:  qty,
		})
	}
	return items
}

func TestConsolidateCreatesNewOrder(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "Apples", 2.50, 10)
	store.addProduct(2, "Milk", 1.20, 5)
	publisher := &fakePublisher{}
	uc := newTestUseCase(store, publisher, nil)

	out, err := uc.Consolidate(context.Background(), ConsolidateInput{
		UserID:  7,
		ClerkID: "clerk_1",
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 4},
			{ProductID: 2, Name: "Milk", Price: decimal.NewFromFloat(1.20), Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Order)
	assert.False(t, out.Merged)
	assert.False(t, out.Duplicate)

	assert.Equal(t, domain.OrderStatusPending, out.Order.Status)
	assert.True(t, out.Order.TotalPrice.Equal(decimal.NewFromFloat(12.40)),
		"expected snapshot total 12.40, got %s", out.Order.TotalPrice)

	// Synthetic payment marker until a real payment arrives
	assert.True(t, strings.HasPrefix(out.Order.PaymentResult.ID, "order-"))
	assert.Equal(t, "pending", out.Order.PaymentResult.Status)

	assert.Equal(t, 6, store.products[1].Stock)
	assert.Equal(t, 3, store.products[2].Stock)

	assert.Equal(t, []uint{out.Order.ID}, publisher.created)
	assert.Empty(t, publisher.merged)
	assert.Equal(t, []string{"clerk_1:2024-03-15"}, store.lockedKeys)
}

func TestConsolidateUsesTotalPriceHint(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "Apples", 2.50, 10)
	uc := newTestUseCase(store, nil, nil)

	out, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 2},
		},
		TotalPrice: decimal.NewFromFloat(19.99),
	})
	require.NoError(t, err)
	assert.True(t, out.Order.TotalPrice.Equal(decimal.NewFromFloat(19.99)))
}

func TestConsolidateWindowTracksCalendarDayAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	store := newFakeStore()
	store.addProduct(1, "Apples", 2.50, 10)
	uc := NewOrderUseCase(store, nil, nil, logger.New("orders-test", "error", "console"), loc)
	// 2024-03-10 is the 23-hour spring-forward day in this zone; a flat
	// 24h offset from midnight would spill into March 11
	uc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, loc) }

	_, err = uc.Consolidate(context.Background(), ConsolidateInput{
		UserID:  7,
		ClerkID: "clerk_1",
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, store.windows, 1)
	wantFrom := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	wantTo := time.Date(2024, 3, 10, 23, 59, 59, int(999*time.Millisecond), loc)
	assert.True(t, store.windows[0].from.Equal(wantFrom),
		"window start %v, want %v", store.windows[0].from, wantFrom)
	assert.True(t, store.windows[0].to.Equal(wantTo),
		"window end %v, want %v", store.windows[0].to, wantTo)
}

func TestConsolidateMergesIntoPendingOrder(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "Apples", 3.00, 20) // catalog price moved from 2.50
	store.addProduct(2, "Milk", 1.20, 10)
	publisher := &fakePublisher{}
	uc := newTestUseCase(store, publisher, nil)

	existing := &domain.Order{
		ClerkID: "clerk_1",
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 3},
		},
		Status:     domain.OrderStatusPending,
		TotalPrice: decimal.NewFromFloat(7.50),
	}
	require.NoError(t, store.Create(context.Background(), existing))

	out, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(3.00), Quantity: 2},
			{ProductID: 2, Name: "Milk", Price: decimal.NewFromFloat(1.20), Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, out.Merged)
	assert.Equal(t, existing.ID, out.Order.ID)

	require.Len(t, out.Order.Items, 2)
	assert.Equal(t, 5, out.Order.Items[0].Quantity)
	assert.True(t, out.Order.Items[0].Price.Equal(decimal.NewFromFloat(2.50)),
		"merged line keeps its original snapshot price")

	// Total reprices every line at the current catalog price:
	// 5 * 3.00 + 1 * 1.20
	assert.True(t, out.Order.TotalPrice.Equal(decimal.NewFromFloat(16.20)),
		"expected repriced total 16.20, got %s", out.Order.TotalPrice)

	// Stock decreases by the requested quantities only
	assert.Equal(t, 18, store.products[1].Stock)
	assert.Equal(t, 9, store.products[2].Stock)

	assert.Equal(t, []uint{existing.ID}, publisher.merged)
	assert.Empty(t, publisher.created)
}

func TestConsolidateDisjointCallsUnionItems(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "Apples", 2.50, 10)
	store.addProduct(2, "Milk", 1.20, 10)
	uc := newTestUseCase(store, nil, nil)

	_, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items:   []domain.OrderItem{{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 2}},
	})
	require.NoError(t, err)

	out, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items:   []domain.OrderItem{{ProductID: 2, Name: "Milk", Price: decimal.NewFromFloat(1.20), Quantity: 3}},
	})
	require.NoError(t, err)
	assert.True(t, out.Merged)
	require.Len(t, out.Order.Items, 2)
	assert.Len(t, store.orders, 1, "same-day calls must not create a second pending order")
}

func TestConsolidateDuplicatePaymentIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "Apples", 2.50, 10)
	publisher := &fakePublisher{}
	uc := newTestUseCase(store, publisher, nil)

	payment := &domain.PaymentResult{ID: "pi_123", Status: "succeeded"}

	first, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID:       "clerk_1",
		Items:         []domain.OrderItem{{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 2}},
		PaymentResult: payment,
	})
	require.NoError(t, err)
	require.False(t, first.Duplicate)
	stockAfterFirst := store.products[1].Stock

	second, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID:       "clerk_1",
		Items:         []domain.OrderItem{{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 2}},
		PaymentResult: payment,
	})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	assert.Equal(t, stockAfterFirst, store.products[1].Stock, "redelivery must not decrement stock again")
	assert.Len(t, store.orders, 1)
	assert.Len(t, publisher.created, 1, "no event for the ignored redelivery")
}

func TestConsolidateAttachesPaymentOnMerge(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "Apples", 2.50, 10)
	uc := newTestUseCase(store, nil, nil)

	_, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items:   []domain.OrderItem{{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 1}},
	})
	require.NoError(t, err)

	out, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID:       "clerk_1",
		Items:         []domain.OrderItem{{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 1}},
		PaymentResult: &domain.PaymentResult{ID: "pi_456", Status: "succeeded"},
	})
	require.NoError(t, err)
	assert.True(t, out.Merged)
	assert.Equal(t, "pi_456", out.Order.PaymentResult.ID)
	assert.Equal(t, "succeeded", out.Order.PaymentResult.Status)
}

func TestConsolidateRejectsEmptyAndInvalidItems(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store, nil, nil)

	_, err := uc.Consolidate(context.Background(), ConsolidateInput{ClerkID: "clerk_1"})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items:   []domain.OrderItem{{ProductID: 1, Quantity: 0}},
	})
	assert.True(t, errors.Is(err, errors.CodeValidation))
	assert.Empty(t, store.orders)
}

func TestConsolidateUnknownProduct(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store, nil, nil)

	_, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items:   []domain.OrderItem{{ProductID: 99, Name: "Ghost", Price: decimal.NewFromFloat(1.00), Quantity: 1}},
	})
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	assert.Empty(t, store.orders)
}

func TestConsolidateInsufficientStockLeavesNoTrace(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "Apples", 2.50, 3)
	uc := newTestUseCase(store, nil, nil)

	_, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items:   []domain.OrderItem{{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 5}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeOutOfStock))
	assert.Contains(t, err.Error(), "Apples")

	assert.Empty(t, store.orders, "failed consolidation must not leave an order behind")
	assert.Equal(t, 3, store.products[1].Stock, "failed consolidation must not touch stock")
}

func TestConsolidateDecrementRaceRollsBack(t *testing.T) {
	store := newFakeStore()
	store.addProduct(1, "Apples", 2.50, 10)
	store.failDecrement[1] = true
	uc := newTestUseCase(store, nil, nil)

	_, err := uc.Consolidate(context.Background(), ConsolidateInput{
		ClerkID: "clerk_1",
		Items:   []domain.OrderItem{{ProductID: 1, Name: "Apples", Price: decimal.NewFromFloat(2.50), Quantity: 2}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeOutOfStock))
	assert.Contains(t, err.Error(), "Apples", "race loss reports the product by name")
	assert.Empty(t, store.orders, "order created before the failed decrement must roll back")
}

func TestUpdateStatus(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	uc := newTestUseCase(store, publisher, nil)

	order := &domain.Order{ClerkID: "clerk_1", Status: domain.OrderStatusPending}
	require.NoError(t, store.Create(context.Background(), order))

	updated, err := uc.UpdateStatus(context.Background(), order.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	require.NotNil(t, updated.ShippedAt)
	assert.Equal(t, testTime, *updated.ShippedAt)
	assert.Equal(t, []uint{order.ID}, publisher.statusChanged)

	_, err = uc.UpdateStatus(context.Background(), order.ID, "pending")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.UpdateStatus(context.Background(), order.ID, "returned")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.UpdateStatus(context.Background(), 999, "shipped")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestListForCustomerAnnotatesReviews(t *testing.T) {
	store := newFakeStore()
	reviewed := &fakeReviews{reviewed: map[uint]bool{}}
	uc := newTestUseCase(store, nil, reviewed)

	first := &domain.Order{ClerkID: "clerk_1", Status: domain.OrderStatusDelivered}
	second := &domain.Order{ClerkID: "clerk_1", Status: domain.OrderStatusPending}
	require.NoError(t, store.Create(context.Background(), first))
	require.NoError(t, store.Create(context.Background(), second))
	reviewed.reviewed[first.ID] = true

	orders, err := uc.ListForCustomer(context.Background(), "clerk_1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, orders[0].HasReviewed)
	assert.False(t, orders[1].HasReviewed)
}
