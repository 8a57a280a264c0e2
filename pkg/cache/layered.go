package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LayeredCache keeps a short-lived in-process copy (L1) in front of Redis (L2)
// so replicas share results while hot keys skip the network. L1 keeps serving
// when Redis is unreachable.
type LayeredCache struct {
	memCache   *MemoryCache
	redisCache *RedisCache
	memTTL     time.Duration
}

func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		MemoryTTL:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		redisCache: redisCache,
		memTTL:     cfg.MemoryTTL,
	}
}

// l1TTL never outlives the entry itself.
func (lc *LayeredCache) l1TTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.memTTL {
		return expiration
	}
	return lc.memTTL
}

// Set writes L1 then L2. An L2 failure is returned, but the value stays in L1.
func (lc *LayeredCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	_ = lc.memCache.Set(ctx, key, value, lc.l1TTL(expiration))
	if err := lc.redisCache.Set(ctx, key, value, expiration); err != nil {
		return fmt.Errorf("layered set %s: %w", key, err)
	}
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if b, err := lc.memCache.Get(ctx, key); err == nil {
		return b, nil
	}

	b, err := lc.redisCache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = lc.memCache.Set(ctx, key, b, lc.memTTL)
	return b, nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.redisCache.Delete(ctx, keys...)
}

func (lc *LayeredCache) Close() error {
	return errors.Join(lc.memCache.Close(), lc.redisCache.Close())
}
