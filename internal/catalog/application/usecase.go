package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-shop/internal/catalog/domain"
	"go-shop/internal/catalog/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/logger"
)

// CatalogUseCase handles catalog business logic
type CatalogUseCase struct {
	repo     ports.Repository
	cache    ports.Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewCatalogUseCase creates a new catalog use case. cache may be nil, in
// which case every read goes to the repository.
func NewCatalogUseCase(repo ports.Repository, cache ports.Cache, cacheTTL time.Duration, log *logger.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// ListProducts returns products matching the filter, serving from the
// cache when a fresh listing exists. Cache failures degrade to repository
// reads, never to request failures.
func (uc *CatalogUseCase) ListProducts(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, error) {
	key := listKey(filter)

	if uc.cache != nil {
		cached, err := uc.cache.GetProducts(ctx, key)
		if err != nil {
			uc.log.WithContext(ctx).Warn("catalog cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	products, err := uc.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetProducts(ctx, key, products, uc.cacheTTL); err != nil {
			uc.log.WithContext(ctx).Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

func listKey(filter ports.ListFilter) string {
	return fmt.Sprintf("products:cat=%d:q=%s:sort=%s", filter.CategoryID, filter.Search, filter.Sort)
}

// GetProduct returns a single product
func (uc *CatalogUseCase) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return uc.repo.GetProduct(ctx, id)
}

// CreateProduct validates and persists a new product
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	if _, err := uc.repo.GetCategory(ctx, product.CategoryID); err != nil {
		return err
	}
	if err := uc.repo.CreateProduct(ctx, product); err != nil {
		return err
	}
	uc.invalidate(ctx)

	uc.log.WithContext(ctx).Info("product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
	)
	return nil
}

// UpdateProduct validates and persists product changes
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	existing, err := uc.repo.GetProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	// Review aggregates are owned by the reviews flow, not the admin form
	product.AverageRating = existing.AverageRating
	product.TotalReviews = existing.TotalReviews

	if err := uc.repo.UpdateProduct(ctx, product); err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

// DeleteProduct removes a product
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := uc.repo.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx)

	uc.log.WithContext(ctx).Info("product deleted", zap.Uint("product_id", id))
	return nil
}

// ApplyRating stores a recomputed review aggregate on the product
func (uc *CatalogUseCase) ApplyRating(ctx context.Context, productID uint, average float64, total int) error {
	if err := uc.repo.ApplyRating(ctx, productID, average, total); err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

// ListCategories returns categories ordered by display order, serving from
// the cache when a fresh listing exists, with the same degrade-to-repository
// behavior as ListProducts.
func (uc *CatalogUseCase) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	key := categoryKey(activeOnly)

	if uc.cache != nil {
		cached, err := uc.cache.GetCategories(ctx, key)
		if err != nil {
			uc.log.WithContext(ctx).Warn("category cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	categories, err := uc.repo.ListCategories(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetCategories(ctx, key, categories, uc.cacheTTL); err != nil {
			uc.log.WithContext(ctx).Warn("category cache write failed", zap.Error(err))
		}
	}
	return categories, nil
}

func categoryKey(activeOnly bool) string {
	return fmt.Sprintf("categories:active=%t", activeOnly)
}

// CreateCategory validates and persists a new category
func (uc *CatalogUseCase) CreateCategory(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if err := uc.repo.CreateCategory(ctx, category); err != nil {
		return err
	}
	uc.invalidateCategories(ctx)
	return nil
}

// UpdateCategory validates and persists category changes
func (uc *CatalogUseCase) UpdateCategory(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if _, err := uc.repo.GetCategory(ctx, category.ID); err != nil {
		return err
	}
	if err := uc.repo.UpdateCategory(ctx, category); err != nil {
		return err
	}
	uc.invalidateCategories(ctx)
	return nil
}

// DeleteCategory removes a category. Deletion is refused while any
// product still references it.
func (uc *CatalogUseCase) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := uc.repo.GetCategory(ctx, id); err != nil {
		return err
	}

	count, err := uc.repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.NewConflict(fmt.Sprintf("category has %d products and cannot be deleted", count))
	}

	if err := uc.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	uc.invalidateCategories(ctx)
	return nil
}

func (uc *CatalogUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidateProducts(ctx); err != nil {
		uc.log.WithContext(ctx).Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (uc *CatalogUseCase) invalidateCategories(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidateCategories(ctx); err != nil {
		uc.log.WithContext(ctx).Warn("category cache invalidation failed", zap.Error(err))
	}
	// Product listings embed the category name
	if err := uc.cache.InvalidateProducts(ctx); err != nil {
		uc.log.WithContext(ctx).Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
