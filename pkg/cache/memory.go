package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryItem stores cached value with expiration.
type MemoryItem struct {
	Value    []byte
	ExpireAt time.Time
}

// MemoryCache implements Store using in-memory storage with LRU eviction.
type MemoryCache struct {
	data          map[string]*MemoryItem
	access        map[string]time.Time
	mutex         sync.Mutex
	maxSize       int
	now           func() time.Time
	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its janitor.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: time.Minute,
		Now:             time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize < 1 {
		cfg.MaxSize = 1
	}

	mc := &MemoryCache{
		data:          make(map[string]*MemoryItem),
		access:        make(map[string]time.Time),
		maxSize:       cfg.MaxSize,
		now:           cfg.Now,
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		done:          make(chan struct{}),
	}

	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	now := mc.now()
	expireAt := now.Add(expiration)
	if expiration <= 0 {
		expireAt = now.Add(24 * time.Hour)
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	mc.data[key] = &MemoryItem{Value: buf, ExpireAt: expireAt}
	mc.access[key] = now
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, exists := mc.data[key]
	if !exists || now.After(item.ExpireAt) {
		if exists {
			delete(mc.data, key)
			delete(mc.access, key)
		}
		return nil, ErrCacheMiss
	}

	mc.access[key] = now
	return item.Value, nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
		delete(mc.access, key)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (mc *MemoryCache) Len() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, accessTime := range mc.access {
		if oldestKey == "" || accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(mc.data, oldestKey)
		delete(mc.access, oldestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanupTicker.C:
			mc.purge()
		}
	}
}

func (mc *MemoryCache) purge() {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	for key, item := range mc.data {
		if now.After(item.ExpireAt) {
			delete(mc.data, key)
			delete(mc.access, key)
		}
	}
}

// Close stops the janitor.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.cleanupTicker.Stop()
		close(mc.done)
	})
	return nil
}
