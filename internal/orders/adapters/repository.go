package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-shop/internal/orders/domain"
	"go-shop/internal/orders/ports"
	apperrors "go-shop/pkg/errors"
)

// AddressModel is the shipping snapshot embedded into the order row
type AddressModel struct {
	FullName string `gorm:"size:120"`
	Street   string `gorm:"size:255"`
	City     string `gorm:"size:120"`
	State    string `gorm:"size:120"`
	Zip      string `gorm:"size:20"`
	Phone    string `gorm:"size:40"`
}

// OrderModel is the GORM model for orders (persistence layer)
type OrderModel struct {
	ID            uint            `gorm:"primaryKey"`
	UserID        uint            `gorm:"index;not null"`
	ClerkID       string          `gorm:"size:64;index;not null"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status        string          `gorm:"size:20;not null;default:'pending';index"`
	PaymentID     string          `gorm:"size:128;uniqueIndex"`
	PaymentStatus string          `gorm:"size:32"`
	Shipping      AddressModel    `gorm:"embedded;embeddedPrefix:shipping_"`
	ShippedAt     *time.Time
	DeliveredAt   *time.Time
	CreatedAt     time.Time        `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime"`
	Items         []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one line of an order. The merge routine guarantees at
// most one line per product per order; the unique index backs that up.
type OrderItemModel struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;uniqueIndex:idx_order_items_order_product"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_order_items_order_product"`
	Name      string          `gorm:"size:255;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity  int             `gorm:"not null"`
	Image     string          `gorm:"size:512"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// GormOrderStore implements ports.Store on PostgreSQL
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates a new PostgreSQL order store
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

// Migrate runs auto-migration plus the partial unique index backing the
// at-most-one-pending-order-per-customer-per-day invariant.
func (s *GormOrderStore) Migrate() error {
	if err := s.db.AutoMigrate(&OrderModel{}, &OrderItemModel{}); err != nil {
		return err
	}
	return s.db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_pending_per_day
		 ON orders (clerk_id, (created_at::date)) WHERE status = 'pending'`,
	).Error
}

// InTx runs fn inside a database transaction
func (s *GormOrderStore) InTx(ctx context.Context, fn func(tx ports.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormOrderStore{db: tx})
	})
}

// LockCustomerDay takes a transaction-scoped advisory lock keyed on the
// customer and calendar day, serializing concurrent consolidations.
func (s *GormOrderStore) LockCustomerDay(ctx context.Context, clerkID string, day time.Time) error {
	key := fmt.Sprintf("order-day:%s:%s", clerkID, day.Format("2006-01-02"))
	return s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

// FindByPaymentID returns the order holding the payment reference, or nil
func (s *GormOrderStore) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	var model OrderModel
	err := s.db.WithContext(ctx).Preload("Items").
		Where("payment_id = ?", paymentID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to look up order by payment", err)
	}
	return toDomain(&model), nil
}

// FindPending returns the customer's pending order within [from, to], or nil
func (s *GormOrderStore) FindPending(ctx context.Context, clerkID string, from, to time.Time) (*domain.Order, error) {
	var model OrderModel
	err := s.db.WithContext(ctx).Preload("Items").
		Where("clerk_id = ? AND status = ? AND created_at BETWEEN ? AND ?",
			clerkID, string(domain.OrderStatusPending), from, to).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to look up pending order", err)
	}
	return toDomain(&model), nil
}

// Create persists a new order with its items
func (s *GormOrderStore) Create(ctx context.Context, order *domain.Order) error {
	model := toModel(order)

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.NewInternal("failed to create order", err)
	}

	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// Update persists the order and rewrites its item lines
func (s *GormOrderStore) Update(ctx context.Context, order *domain.Order) error {
	model := toModel(order)

	err := s.db.WithContext(ctx).Model(&OrderModel{ID: order.ID}).
		Updates(map[string]interface{}{
			"total_price":    model.TotalPrice,
			"status":         model.Status,
			"payment_id":     model.PaymentID,
			"payment_status": model.PaymentStatus,
			"shipped_at":     model.ShippedAt,
			"delivered_at":   model.DeliveredAt,
		}).Error
	if err != nil {
		return apperrors.NewInternal("failed to update order", err)
	}

	// Item lines are rewritten wholesale; the surrounding transaction makes
	// the delete-then-insert atomic.
	if err := s.db.WithContext(ctx).Where("order_id = ?", order.ID).Delete(&OrderItemModel{}).Error; err != nil {
		return apperrors.NewInternal("failed to clear order items", err)
	}
	items := make([]OrderItemModel, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemModel{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}
	if len(items) > 0 {
		if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
			return apperrors.NewInternal("failed to write order items", err)
		}
	}
	return nil
}

// GetByID retrieves an order by ID
func (s *GormOrderStore) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	var model OrderModel
	err := s.db.WithContext(ctx).Preload("Items").First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewOrderNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get order", err)
	}
	return toDomain(&model), nil
}

// ListByClerkID retrieves a customer's orders, newest first
func (s *GormOrderStore) ListByClerkID(ctx context.Context, clerkID string) ([]*domain.Order, error) {
	var models []OrderModel
	err := s.db.WithContext(ctx).Preload("Items").
		Where("clerk_id = ?", clerkID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.NewInternal("failed to list orders", err)
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = toDomain(&models[i])
	}
	return orders, nil
}

// ListAll retrieves every order with customer name/email, newest first
func (s *GormOrderStore) ListAll(ctx context.Context) ([]*domain.Order, error) {
	type row struct {
		OrderModel
		CustomerName  string
		CustomerEmail string
	}

	var rows []row
	err := s.db.WithContext(ctx).Model(&OrderModel{}).
		Select("orders.*, users.name AS customer_name, users.email AS customer_email").
		Joins("LEFT JOIN users ON users.id = orders.user_id").
		Order("orders.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewInternal("failed to list orders", err)
	}

	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	var items []OrderItemModel
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("order_id IN ?", ids).Find(&items).Error; err != nil {
			return nil, apperrors.NewInternal("failed to list order items", err)
		}
	}
	byOrder := make(map[uint][]OrderItemModel)
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	orders := make([]*domain.Order, len(rows))
	for i := range rows {
		rows[i].Items = byOrder[rows[i].ID]
		order := toDomain(&rows[i].OrderModel)
		order.CustomerName = rows[i].CustomerName
		order.CustomerEmail = rows[i].CustomerEmail
		orders[i] = order
	}
	return orders, nil
}

// OwnedBy reports whether the order belongs to the customer
func (s *GormOrderStore) OwnedBy(ctx context.Context, orderID uint, clerkID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ? AND clerk_id = ?", orderID, clerkID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.NewInternal("failed to check order ownership", err)
	}
	return count > 0, nil
}

// GetProduct reads the current catalog state of a product, or nil when the
// reference is dangling
func (s *GormOrderStore) GetProduct(ctx context.Context, id uint) (*ports.ProductInfo, error) {
	var info ports.ProductInfo
	err := s.db.WithContext(ctx).Table("products").
		Select("id, name, price, stock").
		Where("id = ?", id).
		Take(&info).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to read product", err)
	}
	return &info, nil
}

// DecrementStock atomically decrements stock, refusing to go negative
func (s *GormOrderStore) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	result := s.db.WithContext(ctx).Exec(
		"UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock >= ?",
		quantity, productID, quantity,
	)
	if result.Error != nil {
		return apperrors.NewInternal("failed to decrement stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewOutOfStock(fmt.Sprintf("product %d", productID))
	}
	return nil
}

// toModel converts a domain order to GORM models
func toModel(order *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:            order.ID,
		UserID:        order.UserID,
		ClerkID:       order.ClerkID,
		TotalPrice:    order.TotalPrice,
		Status:        string(order.Status),
		PaymentID:     order.PaymentResult.ID,
		PaymentStatus: order.PaymentResult.Status,
		Shipping: AddressModel{
			FullName: order.ShippingAddress.FullName,
			Street:   order.ShippingAddress.Street,
			City:     order.ShippingAddress.City,
			State:    order.ShippingAddress.State,
			Zip:      order.ShippingAddress.Zip,
			Phone:    order.ShippingAddress.Phone,
		},
		ShippedAt:   order.ShippedAt,
		DeliveredAt: order.DeliveredAt,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
	for _, item := range order.Items {
		model.Items = append(model.Items, OrderItemModel{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	return model
}

// toDomain converts a GORM model to a domain order
func toDomain(model *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:      model.ID,
		UserID:  model.UserID,
		ClerkID: model.ClerkID,
		ShippingAddress: domain.Address{
			FullName: model.Shipping.FullName,
			Street:   model.Shipping.Street,
			City:     model.Shipping.City,
			State:    model.Shipping.State,
			Zip:      model.Shipping.Zip,
			Phone:    model.Shipping.Phone,
		},
		PaymentResult: domain.PaymentResult{
			ID:     model.PaymentID,
			Status: model.PaymentStatus,
		},
		TotalPrice:  model.TotalPrice,
		Status:      domain.OrderStatus(model.Status),
		ShippedAt:   model.ShippedAt,
		DeliveredAt: model.DeliveredAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	for _, item := range model.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	return order
}
