package infrastructure

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-shop/internal/payments/application"
	"go-shop/internal/payments/domain"
	"go-shop/pkg/errors"
	"go-shop/pkg/middleware"
)

// signatureHeader carries the webhook's authentication material
const signatureHeader = "Payment-Signature"

// HTTPHandler handles HTTP requests for payments
type HTTPHandler struct {
	useCase *application.PaymentUseCase
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.PaymentUseCase) *HTTPHandler {
	return &HTTPHandler{useCase: useCase}
}

// RegisterRoutes registers the authenticated payment routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payments/create-intent", h.CreateIntent)
}

// RegisterWebhookRoutes registers the processor-facing webhook route.
// It authenticates by signature, not by bearer token.
func (h *HTTPHandler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/payments", h.Webhook)
}

// IntentItemRequest is one product to pay for
type IntentItemRequest struct {
	Product  uint `json:"product" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,gt=0"`
}

// CreateIntentRequest is the request body for intent creation
type CreateIntentRequest struct {
	Items           []IntentItemRequest `json:"items" binding:"required"`
	ShippingAddress struct {
		FullName string `json:"fullName" binding:"required"`
		Street   string `json:"street" binding:"required"`
		City     string `json:"city" binding:"required"`
		State    string `json:"state" binding:"required"`
		Zip      string `json:"zip" binding:"required"`
		Phone    string `json:"phone"`
	} `json:"shippingAddress" binding:"required"`
}

// CreateIntentResponse is the response body for intent creation
type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Subtotal     string `json:"subtotal"`
	Shipping     string `json:"shipping"`
	Tax          string `json:"tax"`
	Total        string `json:"total"`
}

// CreateIntent handles POST /payments/create-intent
// @Summary Create a payment intent for a checkout
// @Description Prices the checkout from current catalog state and returns the processor's client secret
// @Tags payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body CreateIntentRequest true "Checkout"
// @Success 200 {object} CreateIntentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/payments/create-intent [post]
func (h *HTTPHandler) CreateIntent(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.Error(errors.NewUnauthorized("missing identity"))
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	requested := make([]application.RequestedItem, len(req.Items))
	for i, item := range req.Items {
		requested[i] = application.RequestedItem{ProductID: item.Product, Quantity: item.Quantity}
	}

	result, err := h.useCase.CreateIntent(
		c.Request.Context(),
		identity.ClerkID, identity.Email, identity.Name,
		requested,
		domain.ShippingAddress{
			FullName: req.ShippingAddress.FullName,
			Street:   req.ShippingAddress.Street,
			City:     req.ShippingAddress.City,
			State:    req.ShippingAddress.State,
			Zip:      req.ShippingAddress.Zip,
			Phone:    req.ShippingAddress.Phone,
		},
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, CreateIntentResponse{
		ClientSecret: result.Intent.ClientSecret,
		Subtotal:     result.Totals.Subtotal.StringFixed(2),
		Shipping:     result.Totals.Shipping.StringFixed(2),
		Tax:          result.Totals.Tax.StringFixed(2),
		Total:        result.Totals.Total.StringFixed(2),
	})
}

// Webhook handles POST /webhooks/payments
// @Summary Receive payment processor events
// @Description Authenticated deliveries always return 200; a confirmed payment is consolidated into an order
// @Tags payments
// @Accept json
// @Produce json
// @Param Payment-Signature header string true "Webhook signature"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/webhooks/payments [post]
func (h *HTTPHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(errors.NewValidation("unreadable webhook payload", nil))
		return
	}

	if err := h.useCase.IngestWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
