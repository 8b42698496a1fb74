package infrastructure

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"go-shop/internal/catalog/application"
	"go-shop/internal/catalog/domain"
	"go-shop/internal/catalog/ports"
	"go-shop/pkg/errors"
)

// HTTPHandler handles HTTP requests for the catalog
type HTTPHandler struct {
	useCase *application.CatalogUseCase
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.CatalogUseCase) *HTTPHandler {
	return &HTTPHandler{useCase: useCase}
}

// RegisterRoutes registers the storefront catalog routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/categories", h.ListCategories)
}

// RegisterAdminRoutes registers the admin catalog routes
func (h *HTTPHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
	categories := r.Group("/categories")
	{
		categories.GET("", h.ListAllCategories)
		categories.POST("", h.CreateCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}
}

// ProductRequest is the request body for product create and update
type ProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       string   `json:"price" binding:"required"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
	Category    uint     `json:"category" binding:"required"`
	UnitType    string   `json:"unitType"`
	UnitOptions []string `json:"unitOptions"`
}

// CategoryRequest is the request body for category create and update
type CategoryRequest struct {
	Name         string `json:"name" binding:"required"`
	Icon         string `json:"icon"`
	Image        string `json:"image"`
	IsActive     *bool  `json:"isActive"`
	DisplayOrder int    `json:"displayOrder"`
}

// ProductResponse is the response body for product operations
type ProductResponse struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	Stock         int      `json:"stock"`
	Images        []string `json:"images"`
	Category      uint     `json:"category"`
	CategoryName  string   `json:"categoryName"`
	UnitType      string   `json:"unitType"`
	UnitOptions   []string `json:"unitOptions"`
	AverageRating float64  `json:"averageRating"`
	TotalReviews  int      `json:"totalReviews"`
	CreatedAt     string   `json:"createdAt"`
}

// CategoryResponse is the response body for category operations
type CategoryResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Image        string `json:"image"`
	IsActive     bool   `json:"isActive"`
	DisplayOrder int    `json:"displayOrder"`
}

// ListProducts handles GET /products
// @Summary List products
// @Tags catalog
// @Produce json
// @Param category query int false "Category ID"
// @Param search query string false "Search term"
// @Param sort query string false "Sort order" Enums(price_asc, price_desc, rating, newest)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products [get]
func (h *HTTPHandler) ListProducts(c *gin.Context) {
	var filter ports.ListFilter
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.Error(errors.NewValidation("invalid category id", raw))
			return
		}
		filter.CategoryID = uint(id)
	}
	filter.Search = c.Query("search")
	filter.Sort = c.Query("sort")

	products, err := h.useCase.ListProducts(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": toProductResponses(products)})
}

// GetProduct handles GET /products/:id
// @Summary Get a product
// @Tags catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/products/{id} [get]
func (h *HTTPHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid product id", nil))
		return
	}

	product, err := h.useCase.GetProduct(c.Request.Context(), uint(id))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

// ListCategories handles GET /categories
// @Summary List active categories
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/categories [get]
func (h *HTTPHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context(), true)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": toCategoryResponses(categories)})
}

// ListAllCategories handles GET /admin/categories
// @Summary List all categories including inactive ones
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/categories [get]
func (h *HTTPHandler) ListAllCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context(), false)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": toCategoryResponses(categories)})
}

// CreateProduct handles POST /admin/products
// @Summary Create a product
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body ProductRequest true "Product"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/admin/products [post]
func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	product, ok := h.bindProduct(c, 0)
	if !ok {
		return
	}

	if err := h.useCase.CreateProduct(c.Request.Context(), product); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(product))
}

// UpdateProduct handles PUT /admin/products/:id
// @Summary Update a product
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Product"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/admin/products/{id} [put]
func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid product id", nil))
		return
	}

	product, ok := h.bindProduct(c, uint(id))
	if !ok {
		return
	}

	if err := h.useCase.UpdateProduct(c.Request.Context(), product); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// DeleteProduct handles DELETE /admin/products/:id
// @Summary Delete a product
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/admin/products/{id} [delete]
func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid product id", nil))
		return
	}

	if err := h.useCase.DeleteProduct(c.Request.Context(), uint(id)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// CreateCategory handles POST /admin/categories
// @Summary Create a category
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/admin/categories [post]
func (h *HTTPHandler) CreateCategory(c *gin.Context) {
	category, ok := bindCategory(c, 0)
	if !ok {
		return
	}

	if err := h.useCase.CreateCategory(c.Request.Context(), category); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// UpdateCategory handles PUT /admin/categories/:id
// @Summary Update a category
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Category"
// @Success 200 {object} CategoryResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/admin/categories/{id} [put]
func (h *HTTPHandler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid category id", nil))
		return
	}

	category, ok := bindCategory(c, uint(id))
	if !ok {
		return
	}

	if err := h.useCase.UpdateCategory(c.Request.Context(), category); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory handles DELETE /admin/categories/:id
// @Summary Delete a category
// @Description Deletion is refused while any product still references the category
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Category ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/admin/categories/{id} [delete]
func (h *HTTPHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid category id", nil))
		return
	}

	if err := h.useCase.DeleteCategory(c.Request.Context(), uint(id)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (h *HTTPHandler) bindProduct(c *gin.Context, id uint) (*domain.Product, bool) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return nil, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.Error(errors.NewValidation("invalid product price", req.Price))
		return nil, false
	}

	unit := req.UnitType
	if unit == "" {
		unit = string(domain.UnitPieces)
	}

	return &domain.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		Images:      req.Images,
		CategoryID:  req.Category,
		UnitType:    domain.UnitType(unit),
		UnitOptions: req.UnitOptions,
	}, true
}

func bindCategory(c *gin.Context, id uint) (*domain.Category, bool) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return nil, false
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &domain.Category{
		ID:           id,
		Name:         req.Name,
		Icon:         req.Icon,
		Image:        req.Image,
		IsActive:     active,
		DisplayOrder: req.DisplayOrder,
	}, true
}

func toProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price.StringFixed(2),
		Stock:         product.Stock,
		Images:        product.Images,
		Category:      product.CategoryID,
		CategoryName:  product.CategoryName,
		UnitType:      string(product.UnitType),
		UnitOptions:   product.UnitOptions,
		AverageRating: product.AverageRating,
		TotalReviews:  product.TotalReviews,
		CreatedAt:     product.CreatedAt.Format(time.RFC3339),
	}
}

func toProductResponses(products []*domain.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, product := range products {
		responses[i] = toProductResponse(product)
	}
	return responses
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:           category.ID,
		Name:         category.Name,
		Icon:         category.Icon,
		Image:        category.Image,
		IsActive:     category.IsActive,
		DisplayOrder: category.DisplayOrder,
	}
}

func toCategoryResponses(categories []*domain.Category) []CategoryResponse {
	responses := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		responses[i] = toCategoryResponse(category)
	}
	return responses
}
