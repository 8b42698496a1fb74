package infrastructure

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-shop/internal/admin/application"
)

// HTTPHandler handles HTTP requests for the admin dashboard
type HTTPHandler struct {
	useCase *application.AdminUseCase
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.AdminUseCase) *HTTPHandler {
	return &HTTPHandler{useCase: useCase}
}

// RegisterAdminRoutes registers the dashboard routes
func (h *HTTPHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStats)
	r.GET("/customers", h.ListCustomers)
}

// StatsResponse is the dashboard aggregate
type StatsResponse struct {
	Revenue       string `json:"revenue"`
	Orders        int64  `json:"orders"`
	PendingOrders int64  `json:"pendingOrders"`
	Products      int64  `json:"products"`
	Customers     int64  `json:"customers"`
	Reviews       int64  `json:"reviews"`
}

// CustomerResponse is one customer row on the dashboard
type CustomerResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	JoinedAt string `json:"joinedAt"`
}

// GetStats handles GET /admin/stats
// @Summary Dashboard aggregates
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatsResponse
// @Router /api/v1/admin/stats [get]
func (h *HTTPHandler) GetStats(c *gin.Context) {
	stats, err := h.useCase.GetStats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Revenue:       stats.Revenue.StringFixed(2),
		Orders:        stats.OrderCount,
		PendingOrders: stats.PendingOrders,
		Products:      stats.ProductCount,
		Customers:     stats.CustomerCount,
		Reviews:       stats.ReviewCount,
	})
}

// ListCustomers handles GET /admin/customers
// @Summary List every customer
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/customers [get]
func (h *HTTPHandler) ListCustomers(c *gin.Context) {
	customers, err := h.useCase.ListCustomers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	responses := make([]CustomerResponse, len(customers))
	for i, customer := range customers {
		responses[i] = CustomerResponse{
			ID:       customer.ID,
			Email:    customer.Email,
			Name:     customer.Name,
			JoinedAt: customer.JoinedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, gin.H{"customers": responses})
}
