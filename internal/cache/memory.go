package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryQuoteCache is a TTL map suitable for a single API instance.
type MemoryQuoteCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	nowFn   func() time.Time
}

type memoryEntry struct {
	quote   Quote
	expires time.Time
}

func NewMemory(ttl time.Duration) *MemoryQuoteCache {
	return &MemoryQuoteCache{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
		nowFn:   time.Now,
	}
}

func (c *MemoryQuoteCache) Get(_ context.Context, symbol string) (Quote, error) {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	if !ok {
		return Quote{}, ErrMiss
	}
	if c.nowFn().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, symbol)
		c.mu.Unlock()
		return Quote{}, ErrMiss
	}
	return e.quote, nil
}

func (c *MemoryQuoteCache) Set(_ context.Context, q Quote) error {
	c.mu.Lock()
	c.entries[q.Symbol] = memoryEntry{quote: q, expires: c.nowFn().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryQuoteCache) Invalidate(_ context.Context, symbol string) error {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
	return nil
}
