package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/brewhaven/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "catalog:products:"

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// CatalogCache holds catalog listings keyed by category. The catalog is
// read-only after seeding, so entries only go stale across a reseed.
type CatalogCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CatalogCache{client: client, baseTTL: ttl}
}

func (r *CatalogCache) Get(ctx context.Context, category string) ([]models.CatalogItem, error) {
	data, err := r.client.Get(ctx, cacheKey(category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []models.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal catalog failed: %w", err)
	}
	return items, nil
}

func (r *CatalogCache) Set(ctx context.Context, category string, items []models.CatalogItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal catalog failed: %w", err)
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseTTL/4) + 1))
	if err := r.client.Set(ctx, cacheKey(category), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate drops every cached listing.
func (r *CatalogCache) Invalidate(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(category string) string {
	if category == "" {
		return keyPrefix + "all"
	}
	return keyPrefix + "category:" + category
}
