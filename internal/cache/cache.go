package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores short-lived read models. Misses and backend failures look the same to callers.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is an in-process Cache with per-entry expiry.
type TTLCache[V any] struct {
	mu         sync.Mutex
	items      map[string]entry[V]
	maxEntries int
	now        func() time.Time
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{
		items:      make(map[string]entry[V]),
		maxEntries: 10_000,
		now:        time.Now,
	}
}

func (c *TTLCache[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	item, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return item.value, true
}

func (c *TTLCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxEntries {
		c.sweepLocked()
	}
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *TTLCache[V]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// sweepLocked drops expired entries, and everything if the map is still full.
func (c *TTLCache[V]) sweepLocked() {
	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
		}
	}
	if len(c.items) >= c.maxEntries {
		c.items = make(map[string]entry[V])
	}
}
