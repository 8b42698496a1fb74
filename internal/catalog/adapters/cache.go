package adapters

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"go-shop/internal/catalog/domain"
	apperrors "go-shop/pkg/errors"
)

const cachePrefix = "catalog:"

// RedisCache implements ports.Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis catalog cache
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// GetProducts returns the cached listing for the key, or nil on a miss
func (c *RedisCache) GetProducts(ctx context.Context, key string) ([]*domain.Product, error) {
	data, err := c.client.Get(ctx, cachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, apperrors.NewInternal("cache read failed", err)
	}

	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		// A corrupt entry behaves as a miss
		return nil, nil
	}
	return products, nil
}

// SetProducts caches the listing under the key for the TTL
func (c *RedisCache) SetProducts(ctx context.Context, key string, products []*domain.Product, ttl time.Duration) error {
	data, err := json.Marshal(products)
	if err != nil {
		return apperrors.NewInternal("cache encode failed", err)
	}
	if err := c.client.Set(ctx, cachePrefix+key, data, ttl).Err(); err != nil {
		return apperrors.NewInternal("cache write failed", err)
	}
	return nil
}

// InvalidateProducts drops every cached product listing
func (c *RedisCache) InvalidateProducts(ctx context.Context) error {
	return c.dropMatching(ctx, cachePrefix+"products:*")
}

// GetCategories returns the cached listing for the key, or nil on a miss
func (c *RedisCache) GetCategories(ctx context.Context, key string) ([]*domain.Category, error) {
	data, err := c.client.Get(ctx, cachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, apperrors.NewInternal("cache read failed", err)
	}

	var categories []*domain.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		// A corrupt entry behaves as a miss
		return nil, nil
	}
	return categories, nil
}

// SetCategories caches the listing under the key for the TTL
func (c *RedisCache) SetCategories(ctx context.Context, key string, categories []*domain.Category, ttl time.Duration) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return apperrors.NewInternal("cache encode failed", err)
	}
	if err := c.client.Set(ctx, cachePrefix+key, data, ttl).Err(); err != nil {
		return apperrors.NewInternal("cache write failed", err)
	}
	return nil
}

// InvalidateCategories drops every cached category listing
func (c *RedisCache) InvalidateCategories(ctx context.Context) error {
	return c.dropMatching(ctx, cachePrefix+"categories:*")
}

func (c *RedisCache) dropMatching(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return apperrors.NewInternal("cache scan failed", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return apperrors.NewInternal("cache delete failed", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
