package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultQuotePrefix = "stockclass:quote:"

// RedisQuoteCache shares quotes across API replicas. Values are JSON so
// they survive process restarts and stay inspectable with redis-cli.
type RedisQuoteCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedis(client *redis.Client, ttl time.Duration, prefix string) *RedisQuoteCache {
	if prefix == "" {
		prefix = defaultQuotePrefix
	}
	return &RedisQuoteCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisQuoteCache) Get(ctx context.Context, symbol string) (Quote, error) {
	raw, err := c.client.Get(ctx, c.prefix+symbol).Bytes()
	if errors.Is(err, redis.Nil) {
		return Quote{}, ErrMiss
	}
	if err != nil {
		return Quote{}, err
	}

	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		// Treat a corrupt entry as a miss, the caller will refill it.
		_ = c.client.Del(ctx, c.prefix+symbol).Err()
		return Quote{}, ErrMiss
	}
	return q, nil
}

func (c *RedisQuoteCache) Set(ctx context.Context, q Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+q.Symbol, raw, c.ttl).Err()
}

func (c *RedisQuoteCache) Invalidate(ctx context.Context, symbol string) error {
	return c.client.Del(ctx, c.prefix+symbol).Err()
}
