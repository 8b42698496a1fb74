package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop/internal/catalog/domain"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCache(client), mr
}

func sampleProducts() []*domain.Product {
	return []*domain.Product{
		{
			ID:       1,
			Name:     "Apples",
			Price:    decimal.NewFromFloat(2.50),
			Stock:    10,
			UnitType: domain.UnitKg,
		},
		{
			ID:       2,
			Name:     "Milk",
			Price:    decimal.NewFromFloat(1.20),
			Stock:    5,
			UnitType: domain.UnitLiters,
		},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	miss, err := cache.GetProducts(ctx, "products:cat=0:q=:sort=")
	require.NoError(t, err)
	assert.Nil(t, miss, "empty cache must report a miss")

	require.NoError(t, cache.SetProducts(ctx, "products:cat=0:q=:sort=", sampleProducts(), time.Minute))

	got, err := cache.GetProducts(ctx, "products:cat=0:q=:sort=")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Apples", got[0].Name)
	assert.True(t, got[0].Price.Equal(decimal.NewFromFloat(2.50)))
	assert.Equal(t, domain.UnitLiters, got[1].UnitType)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetProducts(ctx, "products:cat=1:q=:sort=", sampleProducts(), time.Minute))
	mr.FastForward(2 * time.Minute)

	got, err := cache.GetProducts(ctx, "products:cat=1:q=:sort=")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry must report a miss")
}

func TestCacheInvalidation(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetProducts(ctx, "products:cat=0:q=:sort=", sampleProducts(), time.Minute))
	require.NoError(t, cache.SetProducts(ctx, "products:cat=2:q=milk:sort=price_asc", sampleProducts(), time.Minute))
	mr.Set("catalog:other", "untouched")

	require.NoError(t, cache.InvalidateProducts(ctx))

	for _, key := range []string{"products:cat=0:q=:sort=", "products:cat=2:q=milk:sort=price_asc"} {
		got, err := cache.GetProducts(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got, "invalidated key %s must report a miss", key)
	}
	assert.True(t, mr.Exists("catalog:other"), "invalidation must only touch product listings")
}

func TestCategoryCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	miss, err := cache.GetCategories(ctx, "categories:active=true")
	require.NoError(t, err)
	assert.Nil(t, miss, "empty cache must report a miss")

	categories := []*domain.Category{
		{ID: 1, Name: "Fruit", IsActive: true, DisplayOrder: 1},
		{ID: 2, Name: "Dairy", IsActive: true, DisplayOrder: 2},
	}
	require.NoError(t, cache.SetCategories(ctx, "categories:active=true", categories, time.Minute))

	got, err := cache.GetCategories(ctx, "categories:active=true")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Fruit", got[0].Name)
	assert.Equal(t, 2, got[1].DisplayOrder)
}

func TestCategoryCacheInvalidationScope(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	categories := []*domain.Category{{ID: 1, Name: "Fruit", IsActive: true}}
	require.NoError(t, cache.SetCategories(ctx, "categories:active=true", categories, time.Minute))
	require.NoError(t, cache.SetCategories(ctx, "categories:active=false", categories, time.Minute))
	require.NoError(t, cache.SetProducts(ctx, "products:cat=0:q=:sort=", sampleProducts(), time.Minute))

	require.NoError(t, cache.InvalidateCategories(ctx))

	for _, key := range []string{"categories:active=true", "categories:active=false"} {
		got, err := cache.GetCategories(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got, "invalidated key %s must report a miss", key)
	}
	products, err := cache.GetProducts(ctx, "products:cat=0:q=:sort=")
	require.NoError(t, err)
	assert.Len(t, products, 2, "category invalidation must leave product listings alone")
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	mr.Set("catalog:products:cat=0:q=:sort=", "{not json")

	got, err := cache.GetProducts(ctx, "products:cat=0:q=:sort=")
	require.NoError(t, err)
	assert.Nil(t, got)
}
