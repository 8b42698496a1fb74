package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-shop/internal/orders/domain"
	"go-shop/internal/orders/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/logger"
)

// OrderUseCase handles order business logic
type OrderUseCase struct {
	store     ports.Store
	publisher ports.EventPublisher
	reviews   ports.ReviewReader
	log       *logger.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewOrderUseCase creates a new order use case. loc fixes the timezone used
// for the same-day merge window; both entry points share it.
func NewOrderUseCase(
	store ports.Store,
	publisher ports.EventPublisher,
	reviews ports.ReviewReader,
	log *logger.Logger,
	loc *time.Location,
) *OrderUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderUseCase{
		store:     store,
		publisher: publisher,
		reviews:   reviews,
		log:       log,
		loc:       loc,
		now:       time.Now,
	}
}

// ConsolidateInput carries one checkout's worth of requested line items.
// PaymentResult is set only on the payment-confirmation path; its ID doubles
// as the idempotency key there.
type ConsolidateInput struct {
	UserID          uint
	ClerkID         string
	Items           []domain.OrderItem
	ShippingAddress domain.Address
	TotalPrice      decimal.Decimal // optional hint; snapshot sum when zero
	PaymentResult   *domain.PaymentResult
}

// ConsolidateOutput reports the resulting order and which path produced it
type ConsolidateOutput struct {
	Order     *domain.Order
	Merged    bool
	Duplicate bool
}

// Consolidate merges the requested items into the customer's same-day
// pending order, or creates a new order when none exists, and decrements
// product stock for every requested item. The whole run executes in one
// transaction serialized per customer per day, so concurrent checkouts
// cannot create duplicate pending orders and a failure at any step leaves
// neither a partial order nor a partial decrement behind.
//
// Merging reprices the order from current catalog prices ("current-price
// repricing"): line snapshots keep the unit price recorded when the line
// was first added, but the stored total always reflects the catalog at the
// time of the last mutation.
func (uc *OrderUseCase) Consolidate(ctx context.Context, in ConsolidateInput) (*ConsolidateOutput, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrNoItems
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	now := uc.now().In(uc.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, uc.loc)
	// Next midnight via the calendar, not a 24h offset, so the window
	// tracks the day exactly across DST shifts
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Millisecond)

	var out ConsolidateOutput

	err := uc.store.InTx(ctx, func(tx ports.Store) error {
		if err := tx.LockCustomerDay(ctx, in.ClerkID, dayStart); err != nil {
			return errors.NewInternal("failed to serialize consolidation", err)
		}

		// Idempotency guard: a payment reference that already produced an
		// order makes this delivery a recognized no-op.
		if in.PaymentResult != nil && in.PaymentResult.ID != "" {
			existing, err := tx.FindByPaymentID(ctx, in.PaymentResult.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				out = ConsolidateOutput{Order: existing, Duplicate: true}
				return nil
			}
		}

		products, err := uc.validateStock(ctx, tx, in.Items)
		if err != nil {
			return err
		}

		target, err := tx.FindPending(ctx, in.ClerkID, dayStart, dayEnd)
		if err != nil {
			return err
		}

		if target != nil {
			for _, item := range in.Items {
				target.MergeItem(item)
			}
			total, err := uc.repriceFromCatalog(ctx, tx, target)
			if err != nil {
				return err
			}
			target.TotalPrice = total
			if in.PaymentResult != nil {
				target.PaymentResult = *in.PaymentResult
			}
			if err := tx.Update(ctx, target); err != nil {
				return err
			}
			out = ConsolidateOutput{Order: target, Merged: true}
		} else {
			order := &domain.Order{
				UserID:          in.UserID,
				ClerkID:         in.ClerkID,
				Items:           in.Items,
				ShippingAddress: in.ShippingAddress,
				Status:          domain.OrderStatusPending,
			}
			if in.PaymentResult != nil {
				order.PaymentResult = *in.PaymentResult
			} else {
				order.PaymentResult = domain.PaymentResult{
					ID:     "order-" + uuid.New().String(),
					Status: "pending",
				}
			}
			if in.TotalPrice.IsPositive() {
				order.TotalPrice = in.TotalPrice
			} else {
				order.TotalPrice = order.SnapshotTotal()
			}
			if err := tx.Create(ctx, order); err != nil {
				return err
			}
			out = ConsolidateOutput{Order: order}
		}

		// Stock decreases by the originally requested quantities, not the
		// merged totals. The decrement is conditional: losing a race since
		// validation surfaces OUT_OF_STOCK here and rolls everything back.
		for _, item := range in.Items {
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, errors.CodeOutOfStock) {
					return errors.NewOutOfStock(products[item.ProductID].Name)
				}
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterConsolidate(ctx, &out)
	return &out, nil
}

// validateStock checks that every requested product exists and has enough
// stock, returning the catalog state keyed by product ID.
func (uc *OrderUseCase) validateStock(ctx context.Context, tx ports.Store, items []domain.OrderItem) (map[uint]*ports.ProductInfo, error) {
	products := make(map[uint]*ports.ProductInfo, len(items))
	for _, item := range items {
		product, err := tx.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.NewProductNotFound(item.ProductID)
		}
		if product.Stock < item.Quantity {
			return nil, errors.NewOutOfStock(product.Name)
		}
		products[item.ProductID] = product
	}
	return products, nil
}

// repriceFromCatalog recomputes the order total from each merged line's
// current catalog price. A line whose product has vanished from the catalog
// contributes nothing.
func (uc *OrderUseCase) repriceFromCatalog(ctx context.Context, tx ports.Store, order *domain.Order) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range order.Items {
		product, err := tx.GetProduct(ctx, item.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		if product == nil {
			continue
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total, nil
}

func (uc *OrderUseCase) afterConsolidate(ctx context.Context, out *ConsolidateOutput) {
	order := out.Order

	switch {
	case out.Duplicate:
		uc.log.WithContext(ctx).Info("duplicate payment delivery ignored",
			zap.Uint("order_id", order.ID),
			zap.String("payment_id", order.PaymentResult.ID),
		)
		return
	case out.Merged:
		uc.publish(ctx, func() error { return uc.publisher.PublishOrderMerged(ctx, order) })
	default:
		uc.publish(ctx, func() error { return uc.publisher.PublishOrderCreated(ctx, order) })
	}

	uc.log.WithContext(ctx).Info("order consolidated",
		zap.Uint("order_id", order.ID),
		zap.String("clerk_id", order.ClerkID),
		zap.Bool("merged", out.Merged),
		zap.String("total_price", order.TotalPrice.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
}

// publish runs an event publish without failing the request on error
func (uc *OrderUseCase) publish(ctx context.Context, fn func() error) {
	if uc.publisher == nil {
		return
	}
	if err := fn(); err != nil {
		uc.log.WithContext(ctx).Error("failed to publish order event", zap.Error(err))
	}
}

// UpdateStatus moves an order to the given literal status. ShippedAt and
// DeliveredAt are set once, on first entry into the corresponding state;
// repeating a status is an idempotent no-op and moving backward is rejected.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, orderID uint, status string) (*domain.Order, error) {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := uc.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.Transition(parsed, uc.now().In(uc.loc)); err != nil {
		return nil, err
	}

	if err := uc.store.Update(ctx, order); err != nil {
		return nil, err
	}

	uc.publish(ctx, func() error { return uc.publisher.PublishStatusChanged(ctx, order) })

	uc.log.WithContext(ctx).Info("order status updated",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)

	return order, nil
}

// ListForCustomer returns the customer's orders, newest first, each
// annotated with whether a review already exists for it.
func (uc *OrderUseCase) ListForCustomer(ctx context.Context, clerkID string) ([]*domain.Order, error) {
	orders, err := uc.store.ListByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 || uc.reviews == nil {
		return orders, nil
	}

	ids := make([]uint, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}
	reviewed, err := uc.reviews.ReviewedOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.HasReviewed = reviewed[order.ID]
	}
	return orders, nil
}

// ListAll returns every order with customer info, newest first
func (uc *OrderUseCase) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return uc.store.ListAll(ctx)
}

// OwnedBy reports whether the order belongs to the given customer
func (uc *OrderUseCase) OwnedBy(ctx context.Context, orderID uint, clerkID string) (bool, error) {
	return uc.store.OwnedBy(ctx, orderID, clerkID)
}
