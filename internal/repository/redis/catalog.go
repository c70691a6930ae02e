package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SashaVektor/apple-store-clone/internal/repository"
)

const (
	catalogFreshPrefix = "catalog:fresh:"
	catalogStalePrefix = "catalog:stale:"
)

// CatalogCache keeps two copies of every entry: a fresh one that expires
// after ttl and a stale one without expiry.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

func (c *CatalogCache) Load(ctx context.Context, key string, dst any) (repository.CacheState, error) {
	vals, err := c.client.MGet(ctx, catalogFreshPrefix+key, catalogStalePrefix+key).Result()
	if err != nil {
		return repository.CacheMiss, fmt.Errorf("redis mget catalog %s: %w", key, err)
	}

	for i, state := range []repository.CacheState{repository.CacheFresh, repository.CacheStale} {
		s, ok := vals[i].(string)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(s), dst); err != nil {
			return repository.CacheMiss, fmt.Errorf("unmarshal catalog %s: %w", key, err)
		}
		return state, nil
	}
	return repository.CacheMiss, nil
}

func (c *CatalogCache) Store(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal catalog %s: %w", key, err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, catalogFreshPrefix+key, data, c.ttl)
		pipe.Set(ctx, catalogStalePrefix+key, data, 0)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis store catalog %s: %w", key, err)
	}
	return nil
}
