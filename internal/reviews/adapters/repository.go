package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"go-shop/internal/reviews/domain"
	apperrors "go-shop/pkg/errors"
)

// ReviewModel is the GORM model for reviews
type ReviewModel struct {
	ID        uint   `gorm:"primarykey"`
	OrderID   uint   `gorm:"not null;uniqueIndex:idx_reviews_order_product_user"`
	ProductID uint   `gorm:"not null;uniqueIndex:idx_reviews_order_product_user;index"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_reviews_order_product_user"`
	Rating    int    `gorm:"not null"`
	Comment   string `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName specifies the table name
func (ReviewModel) TableName() string {
	return "reviews"
}

// reviewRow carries a review joined with product and customer names
type reviewRow struct {
	ReviewModel
	ProductName  string
	CustomerName string
}

// GormReviewRepository implements ports.Repository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GORM review repository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Migrate creates the review table
func (r *GormReviewRepository) Migrate() error {
	return r.db.AutoMigrate(&ReviewModel{})
}

// Create persists a new review. The unique index turns a repeated review
// into a conflict.
func (r *GormReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	model := &ReviewModel{
		OrderID:   review.OrderID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return domain.NewDuplicateReview()
		}
		return apperrors.NewInternal("failed to create review", err)
	}

	review.ID = model.ID
	review.CreatedAt = model.CreatedAt
	return nil
}

// ListByProduct retrieves a product's reviews, newest first
func (r *GormReviewRepository) ListByProduct(ctx context.Context, productID uint) ([]*domain.Review, error) {
	var rows []reviewRow
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, users.name AS customer_name").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewInternal("failed to list reviews", err)
	}
	return toReviews(rows), nil
}

// ListAll retrieves every review with product and customer names
func (r *GormReviewRepository) ListAll(ctx context.Context) ([]*domain.Review, error) {
	var rows []reviewRow
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, products.name AS product_name, users.name AS customer_name").
		Joins("LEFT JOIN products ON products.id = reviews.product_id").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Order("reviews.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewInternal("failed to list reviews", err)
	}
	return toReviews(rows), nil
}

// ReviewedOrderIDs returns the subset of orderIDs that have at least one
// review
func (r *GormReviewRepository) ReviewedOrderIDs(ctx context.Context, orderIDs []uint) (map[uint]bool, error) {
	if len(orderIDs) == 0 {
		return map[uint]bool{}, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Distinct("order_id").
		Where("order_id IN ?", orderIDs).
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, apperrors.NewInternal("failed to look up reviewed orders", err)
	}

	reviewed := make(map[uint]bool, len(ids))
	for _, id := range ids {
		reviewed[id] = true
	}
	return reviewed, nil
}

// AggregateForProduct recomputes a product's review aggregate
func (r *GormReviewRepository) AggregateForProduct(ctx context.Context, productID uint) (float64, int, error) {
	var aggregate struct {
		Average float64
		Total   int
	}
	err := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("product_id = ?", productID).
		Take(&aggregate).Error
	if err != nil {
		return 0, 0, apperrors.NewInternal("failed to aggregate reviews", err)
	}
	return aggregate.Average, aggregate.Total, nil
}

func toReviews(rows []reviewRow) []*domain.Review {
	reviews := make([]*domain.Review, len(rows))
	for i, row := range rows {
		reviews[i] = &domain.Review{
			ID:           row.ID,
			OrderID:      row.OrderID,
			ProductID:    row.ProductID,
			UserID:       row.UserID,
			Rating:       row.Rating,
			Comment:      row.Comment,
			CreatedAt:    row.CreatedAt,
			ProductName:  row.ProductName,
			CustomerName: row.CustomerName,
		}
	}
	return reviews
}
