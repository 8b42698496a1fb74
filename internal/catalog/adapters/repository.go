package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-shop/internal/catalog/domain"
	"go-shop/internal/catalog/ports"
	apperrors "go-shop/pkg/errors"
)

// CategoryModel is the GORM model for categories
type CategoryModel struct {
	ID           uint   `gorm:"primarykey"`
	Name         string `gorm:"size:100;not null;uniqueIndex"`
	Icon         string `gorm:"size:100"`
	Image        string `gorm:"size:500"`
	IsActive     bool   `gorm:"default:true"`
	DisplayOrder int    `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name
func (CategoryModel) TableName() string {
	return "categories"
}

// ProductModel is the GORM model for products
type ProductModel struct {
	ID            uint            `gorm:"primarykey"`
	Name          string          `gorm:"size:200;not null;index"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock         int             `gorm:"not null;default:0"`
	Images        []string        `gorm:"serializer:json;type:jsonb"`
	CategoryID    uint            `gorm:"not null;index"`
	UnitType      string          `gorm:"size:20;not null;default:pieces"`
	UnitOptions   []string        `gorm:"serializer:json;type:jsonb"`
	AverageRating float64         `gorm:"default:0"`
	TotalReviews  int             `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name
func (ProductModel) TableName() string {
	return "products"
}

// productRow carries a product joined with its category name
type productRow struct {
	ProductModel
	CategoryName string
}

// GormCatalogRepository implements ports.Repository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GORM catalog repository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// Migrate creates the catalog tables
func (r *GormCatalogRepository) Migrate() error {
	return r.db.AutoMigrate(&CategoryModel{}, &ProductModel{})
}

// ListProducts retrieves products matching the filter
func (r *GormCatalogRepository) ListProducts(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, error) {
	query := r.db.WithContext(ctx).
		Table("products").
		Select("products.*, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = products.category_id")

	if filter.CategoryID != 0 {
		query = query.Where("products.category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("products.name ILIKE ? OR products.description ILIKE ?", pattern, pattern)
	}

	switch filter.Sort {
	case "price_asc":
		query = query.Order("products.price ASC")
	case "price_desc":
		query = query.Order("products.price DESC")
	case "rating":
		query = query.Order("products.average_rating DESC")
	default:
		query = query.Order("products.created_at DESC")
	}

	var rows []productRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list products", err)
	}

	products := make([]*domain.Product, len(rows))
	for i, row := range rows {
		products[i] = toProduct(&row.ProductModel, row.CategoryName)
	}
	return products, nil
}

// GetProduct retrieves a product by ID
func (r *GormCatalogRepository) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	var row productRow
	err := r.db.WithContext(ctx).
		Table("products").
		Select("products.*, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("products.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewProductNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get product", err)
	}
	return toProduct(&row.ProductModel, row.CategoryName), nil
}

// CreateProduct persists a new product
func (r *GormCatalogRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	model := toProductModel(product)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.NewInternal("failed to create product", err)
	}
	product.ID = model.ID
	product.CreatedAt = model.CreatedAt
	return nil
}

// UpdateProduct persists product changes
func (r *GormCatalogRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	model := toProductModel(product)
	result := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":           model.Name,
			"description":    model.Description,
			"price":          model.Price,
			"stock":          model.Stock,
			"images":         model.Images,
			"category_id":    model.CategoryID,
			"unit_type":      model.UnitType,
			"unit_options":   model.UnitOptions,
			"average_rating": model.AverageRating,
			"total_reviews":  model.TotalReviews,
		})
	if result.Error != nil {
		return apperrors.NewInternal("failed to update product", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewProductNotFound(product.ID)
	}
	return nil
}

// DeleteProduct removes a product
func (r *GormCatalogRepository) DeleteProduct(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&ProductModel{}, id)
	if result.Error != nil {
		return apperrors.NewInternal("failed to delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewProductNotFound(id)
	}
	return nil
}

// ApplyRating stores a recomputed review aggregate on the product
func (r *GormCatalogRepository) ApplyRating(ctx context.Context, productID uint, average float64, total int) error {
	result := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"average_rating": average,
			"total_reviews":  total,
		})
	if result.Error != nil {
		return apperrors.NewInternal("failed to update product rating", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewProductNotFound(productID)
	}
	return nil
}

// ListCategories retrieves categories ordered by display order
func (r *GormCatalogRepository) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	query := r.db.WithContext(ctx).Order("display_order ASC, name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var models []CategoryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list categories", err)
	}

	categories := make([]*domain.Category, len(models))
	for i := range models {
		categories[i] = toCategory(&models[i])
	}
	return categories, nil
}

// GetCategory retrieves a category by ID
func (r *GormCatalogRepository) GetCategory(ctx context.Context, id uint) (*domain.Category, error) {
	var model CategoryModel
	err := r.db.WithContext(ctx).Take(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewCategoryNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get category", err)
	}
	return toCategory(&model), nil
}

// CreateCategory persists a new category
func (r *GormCatalogRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	model := toCategoryModel(category)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.NewInternal("failed to create category", err)
	}
	category.ID = model.ID
	return nil
}

// UpdateCategory persists category changes
func (r *GormCatalogRepository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	result := r.db.WithContext(ctx).
		Model(&CategoryModel{}).
		Where("id = ?", category.ID).
		Updates(map[string]interface{}{
			"name":          category.Name,
			"icon":          category.Icon,
			"image":         category.Image,
			"is_active":     category.IsActive,
			"display_order": category.DisplayOrder,
		})
	if result.Error != nil {
		return apperrors.NewInternal("failed to update category", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewCategoryNotFound(category.ID)
	}
	return nil
}

// DeleteCategory removes a category
func (r *GormCatalogRepository) DeleteCategory(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&CategoryModel{}, id)
	if result.Error != nil {
		return apperrors.NewInternal("failed to delete category", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewCategoryNotFound(id)
	}
	return nil
}

// CountProductsInCategory counts the products referencing a category
func (r *GormCatalogRepository) CountProductsInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.NewInternal("failed to count products", err)
	}
	return count, nil
}

func toProduct(model *ProductModel, categoryName string) *domain.Product {
	return &domain.Product{
		ID:            model.ID,
		Name:          model.Name,
		Description:   model.Description,
		Price:         model.Price,
		Stock:         model.Stock,
		Images:        model.Images,
		CategoryID:    model.CategoryID,
		CategoryName:  categoryName,
		UnitType:      domain.UnitType(model.UnitType),
		UnitOptions:   model.UnitOptions,
		AverageRating: model.AverageRating,
		TotalReviews:  model.TotalReviews,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toProductModel(product *domain.Product) *ProductModel {
	return &ProductModel{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		Stock:         product.Stock,
		Images:        product.Images,
		CategoryID:    product.CategoryID,
		UnitType:      string(product.UnitType),
		UnitOptions:   product.UnitOptions,
		AverageRating: product.AverageRating,
		TotalReviews:  product.TotalReviews,
	}
}

func toCategoryModel(category *domain.Category) *CategoryModel {
	return &CategoryModel{
		ID:           category.ID,
		Name:         category.Name,
		Icon:         category.Icon,
		Image:        category.Image,
		IsActive:     category.IsActive,
		DisplayOrder: category.DisplayOrder,
	}
}

func toCategory(model *CategoryModel) *domain.Category {
	return &domain.Category{
		ID:           model.ID,
		Name:         model.Name,
		Icon:         model.Icon,
		Image:        model.Image,
		IsActive:     model.IsActive,
		DisplayOrder: model.DisplayOrder,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
