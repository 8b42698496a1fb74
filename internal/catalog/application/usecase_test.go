package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"go-shop/internal/catalog/domain"
	"go-shop/internal/catalog/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/logger"
)

type mockRepository struct {
	products          map[uint]*domain.Product
	categories        map[uint]*domain.Category
	nextID            uint
	listCalls         int
	listCategoryCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		products:   make(map[uint]*domain.Product),
		categories: make(map[uint]*domain.Category),
		nextID:     1,
	}
}

func (m *mockRepository) ListProducts(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, error) {
	m.listCalls++
	var result []*domain.Product
	for _, p := range m.products {
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *mockRepository) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.NewProductNotFound(id)
	}
	return p, nil
}

func (m *mockRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	product.ID = m.nextID
	m.nextID++
	m.products[product.ID] = product
	return nil
}

func (m *mockRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return domain.NewProductNotFound(product.ID)
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockRepository) DeleteProduct(ctx context.Context, id uint) error {
	if _, ok := m.products[id]; !ok {
		return domain.NewProductNotFound(id)
	}
	delete(m.products, id)
	return nil
}

func (m *mockRepository) ApplyRating(ctx context.Context, productID uint, average float64, total int) error {
	p, ok := m.products[productID]
	if !ok {
		return domain.NewProductNotFound(productID)
	}
	p.AverageRating = average
	p.TotalReviews = total
	return nil
}

func (m *mockRepository) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	m.listCategoryCalls++
	var result []*domain.Category
	for _, c := range m.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

func (m *mockRepository) GetCategory(ctx context.Context, id uint) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, domain.NewCategoryNotFound(id)
	}
	return c, nil
}

func (m *mockRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	category.ID = m.nextID
	m.nextID++
	m.categories[category.ID] = category
	return nil
}

func (m *mockRepository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return domain.NewCategoryNotFound(category.ID)
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockRepository) DeleteCategory(ctx context.Context, id uint) error {
	if _, ok := m.categories[id]; !ok {
		return domain.NewCategoryNotFound(id)
	}
	delete(m.categories, id)
	return nil
}

func (m *mockRepository) CountProductsInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	for _, p := range m.products {
		if p.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

type mockCache struct {
	entries               map[string][]*domain.Product
	categoryEntries       map[string][]*domain.Category
	invalidated           int
	categoriesInvalidated int
}

func newMockCache() *mockCache {
	return &mockCache{
		entries:         make(map[string][]*domain.Product),
		categoryEntries: make(map[string][]*domain.Category),
	}
}

func (m *mockCache) GetProducts(ctx context.Context, key string) ([]*domain.Product, error) {
	return m.entries[key], nil
}

func (m *mockCache) SetProducts(ctx context.Context, key string, products []*domain.Product, ttl time.Duration) error {
	m.entries[key] = products
	return nil
}

func (m *mockCache) InvalidateProducts(ctx context.Context) error {
	m.invalidated++
	m.entries = make(map[string][]*domain.Product)
	return nil
}

func (m *mockCache) GetCategories(ctx context.Context, key string) ([]*domain.Category, error) {
	return m.categoryEntries[key], nil
}

func (m *mockCache) SetCategories(ctx context.Context, key string, categories []*domain.Category, ttl time.Duration) error {
	m.categoryEntries[key] = categories
	return nil
}

func (m *mockCache) InvalidateCategories(ctx context.Context) error {
	m.categoriesInvalidated++
	m.categoryEntries = make(map[string][]*domain.Category)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New("catalog-test", "error", "console")
}

func seedCategory(repo *mockRepository) *domain.Category {
	category := &domain.Category{Name: "Fruit", IsActive: true}
	_ = repo.CreateCategory(context.Background(), category)
	return category
}

func validProduct(categoryID uint) *domain.Product {
	return &domain.Product{
		Name:       "Apples",
		Price:      decimal.NewFromFloat(2.50),
		Stock:      10,
		CategoryID: categoryID,
		UnitType:   domain.UnitKg,
	}
}

func TestListProductsUsesCache(t *testing.T) {
	repo := newMockRepository()
	cache := newMockCache()
	category := seedCategory(repo)
	uc := NewCatalogUseCase(repo, cache, time.Minute, testLogger())

	if err := uc.CreateProduct(context.Background(), validProduct(category.ID)); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	if _, err := uc.ListProducts(context.Background(), ports.ListFilter{}); err != nil {
		t.Fatalf("first list failed: %v", err)
	}
	if _, err := uc.ListProducts(context.Background(), ports.ListFilter{}); err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if repo.listCalls != 1 {
		t.Errorf("expected 1 repository read, got %d", repo.listCalls)
	}

	// A different filter is a different cache key
	if _, err := uc.ListProducts(context.Background(), ports.ListFilter{CategoryID: category.ID}); err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("expected 2 repository reads, got %d", repo.listCalls)
	}
}

func TestProductWritesInvalidateCache(t *testing.T) {
	repo := newMockRepository()
	cache := newMockCache()
	category := seedCategory(repo)
	uc := NewCatalogUseCase(repo, cache, time.Minute, testLogger())

	product := validProduct(category.ID)
	if err := uc.CreateProduct(context.Background(), product); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if cache.invalidated != 1 {
		t.Errorf("expected invalidation after create, got %d", cache.invalidated)
	}

	product.Stock = 20
	if err := uc.UpdateProduct(context.Background(), product); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if err := uc.ApplyRating(context.Background(), product.ID, 4.5, 2); err != nil {
		t.Fatalf("ApplyRating failed: %v", err)
	}
	if err := uc.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if cache.invalidated != 4 {
		t.Errorf("expected 4 invalidations, got %d", cache.invalidated)
	}
}

func TestListCategoriesUsesCache(t *testing.T) {
	repo := newMockRepository()
	cache := newMockCache()
	seedCategory(repo)
	uc := NewCatalogUseCase(repo, cache, time.Minute, testLogger())

	if _, err := uc.ListCategories(context.Background(), true); err != nil {
		t.Fatalf("first list failed: %v", err)
	}
	if _, err := uc.ListCategories(context.Background(), true); err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if repo.listCategoryCalls != 1 {
		t.Errorf("expected 1 repository read, got %d", repo.listCategoryCalls)
	}

	// The admin view (inactive included) is a different cache key
	if _, err := uc.ListCategories(context.Background(), false); err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if repo.listCategoryCalls != 2 {
		t.Errorf("expected 2 repository reads, got %d", repo.listCategoryCalls)
	}
}

func TestCategoryWritesInvalidateCache(t *testing.T) {
	repo := newMockRepository()
	cache := newMockCache()
	uc := NewCatalogUseCase(repo, cache, time.Minute, testLogger())

	category := &domain.Category{Name: "Dairy", IsActive: true}
	if err := uc.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if cache.categoriesInvalidated != 1 {
		t.Errorf("expected invalidation after create, got %d", cache.categoriesInvalidated)
	}

	// Fill the cache, rename the category, and the next read must see the
	// rename rather than the cached listing
	if _, err := uc.ListCategories(context.Background(), false); err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	category.Name = "Dairy & Eggs"
	if err := uc.UpdateCategory(context.Background(), category); err != nil {
		t.Fatalf("UpdateCategory failed: %v", err)
	}
	listed, err := uc.ListCategories(context.Background(), false)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Dairy & Eggs" {
		t.Errorf("stale category listing after update: %+v", listed)
	}
	if repo.listCategoryCalls != 2 {
		t.Errorf("expected the post-update list to bypass the cache, got %d reads", repo.listCategoryCalls)
	}

	if err := uc.DeleteCategory(context.Background(), category.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if cache.categoriesInvalidated != 3 {
		t.Errorf("expected 3 invalidations, got %d", cache.categoriesInvalidated)
	}
	// Product listings carry the category name, so they are dropped too
	if cache.invalidated != 3 {
		t.Errorf("expected product listings dropped on category writes, got %d", cache.invalidated)
	}
}

func TestCreateProductValidation(t *testing.T) {
	repo := newMockRepository()
	category := seedCategory(repo)
	uc := NewCatalogUseCase(repo, nil, time.Minute, testLogger())

	cases := []struct {
		name   string
		mutate func(*domain.Product)
	}{
		{"missing name", func(p *domain.Product) { p.Name = "" }},
		{"negative price", func(p *domain.Product) { p.Price = decimal.NewFromFloat(-1) }},
		{"negative stock", func(p *domain.Product) { p.Stock = -1 }},
		{"missing category", func(p *domain.Product) { p.CategoryID = 0 }},
		{"bad unit", func(p *domain.Product) { p.UnitType = "boxes" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := validProduct(category.ID)
			tc.mutate(product)
			err := uc.CreateProduct(context.Background(), product)
			if !errors.Is(err, errors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	// Unknown category is rejected as not found
	product := validProduct(999)
	if err := uc.CreateProduct(context.Background(), product); !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestUpdateProductKeepsRatingAggregates(t *testing.T) {
	repo := newMockRepository()
	category := seedCategory(repo)
	uc := NewCatalogUseCase(repo, nil, time.Minute, testLogger())

	product := validProduct(category.ID)
	if err := uc.CreateProduct(context.Background(), product); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if err := uc.ApplyRating(context.Background(), product.ID, 4.0, 3); err != nil {
		t.Fatalf("ApplyRating failed: %v", err)
	}

	update := validProduct(category.ID)
	update.ID = product.ID
	update.AverageRating = 1.0
	update.TotalReviews = 99
	if err := uc.UpdateProduct(context.Background(), update); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}

	stored, err := uc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if stored.AverageRating != 4.0 || stored.TotalReviews != 3 {
		t.Errorf("admin update overwrote review aggregates: avg=%v total=%d", stored.AverageRating, stored.TotalReviews)
	}
}

func TestDeleteCategoryBlockedWhileReferenced(t *testing.T) {
	repo := newMockRepository()
	category := seedCategory(repo)
	uc := NewCatalogUseCase(repo, nil, time.Minute, testLogger())

	if err := uc.CreateProduct(context.Background(), validProduct(category.ID)); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	err := uc.DeleteCategory(context.Background(), category.ID)
	if !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := uc.repo.GetCategory(context.Background(), category.ID); err != nil {
		t.Fatal("category must survive a refused deletion")
	}

	// Once the products are gone the category can go too
	products, _ := repo.ListProducts(context.Background(), ports.ListFilter{})
	for _, p := range products {
		if err := uc.DeleteProduct(context.Background(), p.ID); err != nil {
			t.Fatalf("DeleteProduct failed: %v", err)
		}
	}
	if err := uc.DeleteCategory(context.Background(), category.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
}
