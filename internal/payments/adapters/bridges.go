package adapters

import (
	"context"

	catalogapp "go-shop/internal/catalog/application"
	ordersapp "go-shop/internal/orders/application"
	ordersdomain "go-shop/internal/orders/domain"
	"go-shop/internal/payments/ports"
	usersapp "go-shop/internal/users/application"
)

// CustomerBridge implements ports.CustomerDirectory on the users context
type CustomerBridge struct {
	users *usersapp.UserUseCase
}

// NewCustomerBridge creates a new customer directory bridge
func NewCustomerBridge(users *usersapp.UserUseCase) *CustomerBridge {
	return &CustomerBridge{users: users}
}

// Lookup resolves the identity to a customer, creating the user record on
// first sight
func (b *CustomerBridge) Lookup(ctx context.Context, clerkID, email, name string) (*ports.CustomerInfo, error) {
	if _, err := b.users.Resolve(ctx, clerkID, email, name); err != nil {
		return nil, err
	}
	user, err := b.users.GetByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return &ports.CustomerInfo{
		UserID:              user.ID,
		Email:               user.Email,
		Name:                user.Name,
		ProcessorCustomerID: user.ProcessorCustomerID,
	}, nil
}

// AttachProcessorCustomer stores the processor's customer reference
func (b *CustomerBridge) AttachProcessorCustomer(ctx context.Context, userID uint, customerID string) error {
	return b.users.SetProcessorCustomerID(ctx, userID, customerID)
}

// CatalogBridge implements ports.ProductReader on the catalog context
type CatalogBridge struct {
	catalog *catalogapp.CatalogUseCase
}

// NewCatalogBridge creates a new catalog reader bridge
func NewCatalogBridge(catalog *catalogapp.CatalogUseCase) *CatalogBridge {
	return &CatalogBridge{catalog: catalog}
}

// GetProduct reads current catalog state for checkout validation
func (b *CatalogBridge) GetProduct(ctx context.Context, id uint) (*ports.CatalogProduct, error) {
	product, err := b.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	image := ""
	if len(product.Images) > 0 {
		image = product.Images[0]
	}
	return &ports.CatalogProduct{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
		Stock: product.Stock,
		Image: image,
	}, nil
}

// OrderBridge implements ports.OrderPlacer on the orders context
type OrderBridge struct {
	orders *ordersapp.OrderUseCase
}

// NewOrderBridge creates a new order placer bridge
func NewOrderBridge(orders *ordersapp.OrderUseCase) *OrderBridge {
	return &OrderBridge{orders: orders}
}

// PlaceFromPayment runs order consolidation for a confirmed payment
func (b *OrderBridge) PlaceFromPayment(ctx context.Context, order ports.PlacedOrder) error {
	items := make([]ordersdomain.OrderItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = ordersdomain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}

	_, err := b.orders.Consolidate(ctx, ordersapp.ConsolidateInput{
		UserID:  order.UserID,
		ClerkID: order.ClerkID,
		Items:   items,
		ShippingAddress: ordersdomain.Address{
			FullName: order.ShippingAddress.FullName,
			Street:   order.ShippingAddress.Street,
			City:     order.ShippingAddress.City,
			State:    order.ShippingAddress.State,
			Zip:      order.ShippingAddress.Zip,
			Phone:    order.ShippingAddress.Phone,
		},
		TotalPrice: order.TotalPrice,
		PaymentResult: &ordersdomain.PaymentResult{
			ID:     order.PaymentID,
			Status: "succeeded",
		},
	})
	return err
}

var _ ports.CustomerDirectory = (*CustomerBridge)(nil)
var _ ports.ProductReader = (*CatalogBridge)(nil)
var _ ports.OrderPlacer = (*OrderBridge)(nil)
