package application

import (
	"context"

	"go.uber.org/zap"

	"go-shop/internal/reviews/domain"
	"go-shop/internal/reviews/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/logger"
)

// ReviewUseCase handles review business logic
type ReviewUseCase struct {
	repo    ports.Repository
	orders  ports.OrderChecker
	ratings ports.RatingUpdater
	log     *logger.Logger
}

// NewReviewUseCase creates a new review use case
func NewReviewUseCase(repo ports.Repository, orders ports.OrderChecker, ratings ports.RatingUpdater, log *logger.Logger) *ReviewUseCase {
	return &ReviewUseCase{
		repo:    repo,
		orders:  orders,
		ratings: ratings,
		log:     log,
	}
}

// CreateInput carries a new review and the identity submitting it
type CreateInput struct {
	UserID  uint
	ClerkID string
	Review  *domain.Review
}

// Create validates, persists and aggregates a review. The caller must own
// the order being reviewed; a repeated review of the same product on the
// same order is refused.
func (uc *ReviewUseCase) Create(ctx context.Context, in CreateInput) (*domain.Review, error) {
	review := in.Review
	review.UserID = in.UserID

	if err := review.Validate(); err != nil {
		return nil, err
	}

	owned, err := uc.orders.OwnedBy(ctx, review.OrderID, in.ClerkID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, errors.NewForbidden("order does not belong to the caller")
	}

	if err := uc.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	// The product's stored aggregate follows every accepted review.
	// Failure here leaves the review in place; the aggregate catches up
	// on the next one.
	average, total, err := uc.repo.AggregateForProduct(ctx, review.ProductID)
	if err == nil {
		err = uc.ratings.ApplyRating(ctx, review.ProductID, average, total)
	}
	if err != nil {
		uc.log.WithContext(ctx).Error("failed to update product rating",
			zap.Error(err),
			zap.Uint("product_id", review.ProductID),
		)
	}

	uc.log.WithContext(ctx).Info("review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("order_id", review.OrderID),
		zap.Uint("product_id", review.ProductID),
		zap.Int("rating", review.Rating),
	)
	return review, nil
}

// ListByProduct returns a product's reviews, newest first
func (uc *ReviewUseCase) ListByProduct(ctx context.Context, productID uint) ([]*domain.Review, error) {
	return uc.repo.ListByProduct(ctx, productID)
}

// ListAll returns every review with product and customer names
func (uc *ReviewUseCase) ListAll(ctx context.Context) ([]*domain.Review, error) {
	return uc.repo.ListAll(ctx)
}

// ReviewedOrderIDs reports which of the given orders already carry a
// review. It satisfies the ReviewReader port of the orders context.
func (uc *ReviewUseCase) ReviewedOrderIDs(ctx context.Context, orderIDs []uint) (map[uint]bool, error) {
	return uc.repo.ReviewedOrderIDs(ctx, orderIDs)
}
