package infrastructure

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-shop/internal/reviews/application"
	"go-shop/internal/reviews/domain"
	"go-shop/internal/reviews/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/middleware"
)

// HTTPHandler handles HTTP requests for reviews
type HTTPHandler struct {
	useCase  *application.ReviewUseCase
	resolver ports.UserResolver
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.ReviewUseCase, resolver ports.UserResolver) *HTTPHandler {
	return &HTTPHandler{useCase: useCase, resolver: resolver}
}

// RegisterRoutes registers the customer-facing review routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reviews", h.CreateReview)
}

// RegisterPublicRoutes registers the unauthenticated review routes
func (h *HTTPHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/products/:id/reviews", h.ListProductReviews)
}

// RegisterAdminRoutes registers the admin review routes
func (h *HTTPHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/reviews", h.ListAllReviews)
}

// CreateReviewRequest is the request body for review creation
type CreateReviewRequest struct {
	Order   uint   `json:"order" binding:"required"`
	Product uint   `json:"product" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// ReviewResponse is the response body for review operations
type ReviewResponse struct {
	ID           uint   `json:"id"`
	Order        uint   `json:"order"`
	Product      uint   `json:"product"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	CreatedAt    string `json:"createdAt"`
	ProductName  string `json:"productName,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
}

// CreateReview handles POST /reviews
// @Summary Review a product bought in an order
// @Tags reviews
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} ReviewResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/reviews [post]
func (h *HTTPHandler) CreateReview(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.Error(errors.NewUnauthorized("missing identity"))
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	userID, err := h.resolver.Resolve(c.Request.Context(), identity.ClerkID, identity.Email, identity.Name)
	if err != nil {
		c.Error(err)
		return
	}

	review, err := h.useCase.Create(c.Request.Context(), application.CreateInput{
		UserID:  userID,
		ClerkID: identity.ClerkID,
		Review: &domain.Review{
			OrderID:   req.Order,
			ProductID: req.Product,
			Rating:    req.Rating,
			Comment:   req.Comment,
		},
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, toReviewResponse(review))
}

// ListProductReviews handles GET /products/:id/reviews
// @Summary List a product's reviews
// @Tags reviews
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products/{id}/reviews [get]
func (h *HTTPHandler) ListProductReviews(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid product id", nil))
		return
	}

	reviews, err := h.useCase.ListByProduct(c.Request.Context(), uint(id))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": toReviewResponses(reviews)})
}

// ListAllReviews handles GET /admin/reviews
// @Summary List every review
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/reviews [get]
func (h *HTTPHandler) ListAllReviews(c *gin.Context) {
	reviews, err := h.useCase.ListAll(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": toReviewResponses(reviews)})
}

func toReviewResponse(review *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:           review.ID,
		Order:        review.OrderID,
		Product:      review.ProductID,
		Rating:       review.Rating,
		Comment:      review.Comment,
		CreatedAt:    review.CreatedAt.Format(time.RFC3339),
		ProductName:  review.ProductName,
		CustomerName: review.CustomerName,
	}
}

func toReviewResponses(reviews []*domain.Review) []ReviewResponse {
	responses := make([]ReviewResponse, len(reviews))
	for i, review := range reviews {
		responses[i] = toReviewResponse(review)
	}
	return responses
}
