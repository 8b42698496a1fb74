package infrastructure

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-shop/internal/users/application"
	"go-shop/internal/users/domain"
	"go-shop/pkg/errors"
	"go-shop/pkg/middleware"
)

// HTTPHandler handles HTTP requests for user profiles, addresses and
// wishlists
type HTTPHandler struct {
	useCase *application.UserUseCase
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.UserUseCase) *HTTPHandler {
	return &HTTPHandler{useCase: useCase}
}

// RegisterRoutes registers the customer-facing user routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.GetProfile)

	addresses := r.Group("/addresses")
	{
		addresses.GET("", h.ListAddresses)
		addresses.POST("", h.CreateAddress)
		addresses.PUT("/:id", h.UpdateAddress)
		addresses.PATCH("/:id/default", h.SetDefaultAddress)
		addresses.DELETE("/:id", h.DeleteAddress)
	}

	wishlist := r.Group("/wishlist")
	{
		wishlist.GET("", h.ListWishlist)
		wishlist.POST("", h.AddToWishlist)
		wishlist.DELETE("/:productId", h.RemoveFromWishlist)
	}
}

// AddressRequest is the request body for address create and update
type AddressRequest struct {
	FullName  string `json:"fullName" binding:"required"`
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Zip       string `json:"zip" binding:"required"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
}

// WishlistRequest is the request body for adding a wishlist item
type WishlistRequest struct {
	Product uint `json:"product" binding:"required"`
}

// AddressResponse is the response body for address operations
type AddressResponse struct {
	ID        uint   `json:"id"`
	FullName  string `json:"fullName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
}

// WishlistEntryResponse is one wishlist item in responses
type WishlistEntryResponse struct {
	Product uint   `json:"product"`
	Name    string `json:"name"`
	Price   string `json:"price"`
	Image   string `json:"image"`
	Stock   int    `json:"stock"`
	AddedAt string `json:"addedAt"`
}

// resolve maps the request's identity to the internal user ID
func (h *HTTPHandler) resolve(c *gin.Context) (uint, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.Error(errors.NewUnauthorized("missing identity"))
		return 0, false
	}
	userID, err := h.useCase.Resolve(c.Request.Context(), identity.ClerkID, identity.Email, identity.Name)
	if err != nil {
		c.Error(err)
		return 0, false
	}
	return userID, true
}

// GetProfile handles GET /me
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/me [get]
func (h *HTTPHandler) GetProfile(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.Error(errors.NewUnauthorized("missing identity"))
		return
	}
	if _, err := h.useCase.Resolve(c.Request.Context(), identity.ClerkID, identity.Email, identity.Name); err != nil {
		c.Error(err)
		return
	}

	user, err := h.useCase.GetByClerkID(c.Request.Context(), identity.ClerkID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

// ListAddresses handles GET /addresses
// @Summary List the caller's saved addresses
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/addresses [get]
func (h *HTTPHandler) ListAddresses(c *gin.Context) {
	userID, ok := h.resolve(c)
	if !ok {
		return
	}

	addresses, err := h.useCase.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": toAddressResponses(addresses)})
}

// CreateAddress handles POST /addresses
// @Summary Save a new address
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body AddressRequest true "Address"
// @Success 201 {object} AddressResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/addresses [post]
func (h *HTTPHandler) CreateAddress(c *gin.Context) {
	userID, ok := h.resolve(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	address, err := h.useCase.CreateAddress(c.Request.Context(), toAddressDomain(&req, userID, 0))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toAddressResponse(address))
}

// UpdateAddress handles PUT /addresses/:id
// @Summary Update a saved address
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Address ID"
// @Param request body AddressRequest true "Address"
// @Success 200 {object} AddressResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/addresses/{id} [put]
func (h *HTTPHandler) UpdateAddress(c *gin.Context) {
	userID, ok := h.resolve(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid address id", nil))
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	address, err := h.useCase.UpdateAddress(c.Request.Context(), toAddressDomain(&req, userID, uint(id)))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toAddressResponse(address))
}

// SetDefaultAddress handles PATCH /addresses/:id/default
// @Summary Make an address the default
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Address ID"
// @Success 200 {object} AddressResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/addresses/{id}/default [patch]
func (h *HTTPHandler) SetDefaultAddress(c *gin.Context) {
	userID, ok := h.resolve(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid address id", nil))
		return
	}

	address, err := h.useCase.SetDefaultAddress(c.Request.Context(), userID, uint(id))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toAddressResponse(address))
}

// DeleteAddress handles DELETE /addresses/:id
// @Summary Delete a saved address
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Address ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/addresses/{id} [delete]
func (h *HTTPHandler) DeleteAddress(c *gin.Context) {
	userID, ok := h.resolve(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid address id", nil))
		return
	}

	if err := h.useCase.DeleteAddress(c.Request.Context(), userID, uint(id)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted successfully"})
}

// ListWishlist handles GET /wishlist
// @Summary List the caller's wishlist
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/wishlist [get]
func (h *HTTPHandler) ListWishlist(c *gin.Context) {
	userID, ok := h.resolve(c)
	if !ok {
		return
	}

	entries, err := h.useCase.ListWishlist(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	responses := make([]WishlistEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = WishlistEntryResponse{
			Product: entry.ProductID,
			Name:    entry.Name,
			Price:   entry.Price.StringFixed(2),
			Image:   entry.Image,
			Stock:   entry.Stock,
			AddedAt: entry.AddedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": responses})
}

// AddToWishlist handles POST /wishlist
// @Summary Add a product to the wishlist
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body WishlistRequest true "Product"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/wishlist [post]
func (h *HTTPHandler) AddToWishlist(c *gin.Context) {
	userID, ok := h.resolve(c)
	if !ok {
		return
	}

	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	if err := h.useCase.AddToWishlist(c.Request.Context(), userID, req.Product); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product added to wishlist"})
}

// RemoveFromWishlist handles DELETE /wishlist/:productId
// @Summary Remove a product from the wishlist
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param productId path int true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/wishlist/{productId} [delete]
func (h *HTTPHandler) RemoveFromWishlist(c *gin.Context) {
	userID, ok := h.resolve(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid product id", nil))
		return
	}

	if err := h.useCase.RemoveFromWishlist(c.Request.Context(), userID, uint(productID)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed from wishlist"})
}

func toAddressDomain(req *AddressRequest, userID, id uint) *domain.Address {
	return &domain.Address{
		ID:        id,
		UserID:    userID,
		FullName:  req.FullName,
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		Zip:       req.Zip,
		Phone:     req.Phone,
		IsDefault: req.IsDefault,
	}
}

func toAddressResponse(address *domain.Address) AddressResponse {
	return AddressResponse{
		ID:        address.ID,
		FullName:  address.FullName,
		Street:    address.Street,
		City:      address.City,
		State:     address.State,
		Zip:       address.Zip,
		Phone:     address.Phone,
		IsDefault: address.IsDefault,
	}
}

func toAddressResponses(addresses []*domain.Address) []AddressResponse {
	responses := make([]AddressResponse, len(addresses))
	for i, address := range addresses {
		responses[i] = toAddressResponse(address)
	}
	return responses
}
