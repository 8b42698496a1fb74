package infrastructure

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"go-shop/internal/orders/application"
	"go-shop/internal/orders/domain"
	"go-shop/internal/orders/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/middleware"
)

// HTTPHandler handles HTTP requests for orders
type HTTPHandler struct {
	useCase  *application.OrderUseCase
	resolver ports.UserResolver
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.OrderUseCase, resolver ports.UserResolver) *HTTPHandler {
	return &HTTPHandler{useCase: useCase, resolver: resolver}
}

// RegisterRoutes registers the customer-facing order routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
	}
}

// RegisterAdminRoutes registers the admin order routes
func (h *HTTPHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.GET("", h.ListAllOrders)
		orders.PATCH("/:id/status", h.UpdateStatus)
	}
}

// OrderItemRequest is one requested line item with its snapshots
type OrderItemRequest struct {
	Product  uint   `json:"product" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Price    string `json:"price" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Image    string `json:"image"`
}

// AddressRequest is the shipping address snapshot
type AddressRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Street   string `json:"street" binding:"required"`
	City     string `json:"city" binding:"required"`
	State    string `json:"state" binding:"required"`
	Zip      string `json:"zip" binding:"required"`
	Phone    string `json:"phone"`
}

// CreateOrderRequest is the request body for direct order creation
type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest `json:"orderItems" binding:"required"`
	ShippingAddress AddressRequest     `json:"shippingAddress" binding:"required"`
	TotalPrice      string             `json:"totalPrice"`
}

// UpdateStatusRequest is the request body for an order status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderItemResponse is one order line in responses
type OrderItemResponse struct {
	Product  uint   `json:"product"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image"`
}

// AddressResponse is the shipping address in responses
type AddressResponse struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone"`
}

// PaymentResultResponse is the payment reference in responses
type PaymentResultResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrderResponse is the response body for order operations
type OrderResponse struct {
	ID              uint                  `json:"id"`
	OrderItems      []OrderItemResponse   `json:"orderItems"`
	ShippingAddress AddressResponse       `json:"shippingAddress"`
	PaymentResult   PaymentResultResponse `json:"paymentResult"`
	TotalPrice      string                `json:"totalPrice"`
	Status          string                `json:"status"`
	HasReviewed     bool                  `json:"hasReviewed"`
	ShippedAt       *string               `json:"shippedAt"`
	DeliveredAt     *string               `json:"deliveredAt"`
	CreatedAt       string                `json:"createdAt"`
	CustomerName    string                `json:"customerName,omitempty"`
	CustomerEmail   string                `json:"customerEmail,omitempty"`
}

// CreateOrder handles POST /orders
// @Summary Create or merge an order
// @Description Creates an order from the given items, merging into the customer's same-day pending order when one exists
// @Tags orders
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body CreateOrderRequest true "Order creation request"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/orders [post]
func (h *HTTPHandler) CreateOrder(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.Error(errors.NewUnauthorized("missing identity"))
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	userID, err := h.resolver.Resolve(c.Request.Context(), identity.ClerkID, identity.Email, identity.Name)
	if err != nil {
		c.Error(err)
		return
	}

	items := make([]domain.OrderItem, len(req.OrderItems))
	for i, item := range req.OrderItems {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			c.Error(errors.NewValidation("invalid item price", item.Price))
			return
		}
		items[i] = domain.OrderItem{
			ProductID: item.Product,
			Name:      item.Name,
			Price:     price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}

	total := decimal.Zero
	if req.TotalPrice != "" {
		total, err = decimal.NewFromString(req.TotalPrice)
		if err != nil {
			c.Error(errors.NewValidation("invalid total price", req.TotalPrice))
			return
		}
	}

	output, err := h.useCase.Consolidate(c.Request.Context(), application.ConsolidateInput{
		UserID:  userID,
		ClerkID: identity.ClerkID,
		Items:   items,
		ShippingAddress: domain.Address{
			FullName: req.ShippingAddress.FullName,
			Street:   req.ShippingAddress.Street,
			City:     req.ShippingAddress.City,
			State:    req.ShippingAddress.State,
			Zip:      req.ShippingAddress.Zip,
			Phone:    req.ShippingAddress.Phone,
		},
		TotalPrice: total,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Order created successfully",
		"order":    toResponse(output.Order),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// ListOrders handles GET /orders
// @Summary List the customer's orders
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/orders [get]
func (h *HTTPHandler) ListOrders(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.Error(errors.NewUnauthorized("missing identity"))
		return
	}

	orders, err := h.useCase.ListForCustomer(c.Request.Context(), identity.ClerkID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": toResponses(orders)})
}

// ListAllOrders handles GET /admin/orders
// @Summary List all orders
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/orders [get]
func (h *HTTPHandler) ListAllOrders(c *gin.Context) {
	orders, err := h.useCase.ListAll(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": toResponses(orders)})
}

// UpdateStatus handles PATCH /admin/orders/:id/status
// @Summary Update an order's fulfillment status
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Order ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/admin/orders/{id}/status [patch]
func (h *HTTPHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid order id", nil))
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	order, err := h.useCase.UpdateStatus(c.Request.Context(), uint(id), req.Status)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"order":   toResponse(order),
	})
}

func toResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			Product:  item.ProductID,
			Name:     item.Name,
			Price:    item.Price.StringFixed(2),
			Quantity: item.Quantity,
			Image:    item.Image,
		}
	}

	return OrderResponse{
		ID:         order.ID,
		OrderItems: items,
		ShippingAddress: AddressResponse{
			FullName: order.ShippingAddress.FullName,
			Street:   order.ShippingAddress.Street,
			City:     order.ShippingAddress.City,
			State:    order.ShippingAddress.State,
			Zip:      order.ShippingAddress.Zip,
			Phone:    order.ShippingAddress.Phone,
		},
		PaymentResult: PaymentResultResponse{
			ID:     order.PaymentResult.ID,
			Status: order.PaymentResult.Status,
		},
		TotalPrice:    order.TotalPrice.StringFixed(2),
		Status:        string(order.Status),
		HasReviewed:   order.HasReviewed,
		ShippedAt:     formatTime(order.ShippedAt),
		DeliveredAt:   formatTime(order.DeliveredAt),
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
	}
}

func toResponses(orders []*domain.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = toResponse(order)
	}
	return responses
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
