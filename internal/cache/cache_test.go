package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func sampleQuote() Quote {
	return Quote{
		StockID:   uuid.New(),
		Symbol:    "005930",
		Name:      "Samsung Electronics",
		Price:     decimal.NewFromInt(75000),
		UpdatedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()
	want := sampleQuote()

	if _, err := c.Get(ctx, want.Symbol); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get before Set: err = %v, want ErrMiss", err)
	}

	if err := c.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, want.Symbol)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Symbol != want.Symbol || !got.Price.Equal(want.Price) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemory(time.Minute)
	base := time.Now()
	c.nowFn = func() time.Time { return base }

	ctx := context.Background()
	if err := c.Set(ctx, sampleQuote()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c.nowFn = func() time.Time { return base.Add(61 * time.Second) }
	if _, err := c.Get(ctx, "005930"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expired entry: err = %v, want ErrMiss", err)
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, sampleQuote()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Invalidate(ctx, "005930"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.Get(ctx, "005930"); !errors.Is(err, ErrMiss) {
		t.Fatalf("after invalidate: err = %v, want ErrMiss", err)
	}
}

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisQuoteCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ttl, ""), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newTestRedisCache(t, time.Minute)
	ctx := context.Background()
	want := sampleQuote()

	if _, err := c.Get(ctx, want.Symbol); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get before Set: err = %v, want ErrMiss", err)
	}

	if err := c.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, want.Symbol)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.StockID != want.StockID || !got.Price.Equal(want.Price) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	c, mr := newTestRedisCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, sampleQuote()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mr.FastForward(61 * time.Second)

	if _, err := c.Get(ctx, "005930"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expired entry: err = %v, want ErrMiss", err)
	}
}

func TestRedisCacheCorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestRedisCache(t, time.Minute)
	ctx := context.Background()

	mr.Set(defaultQuotePrefix+"005930", "{not json")

	if _, err := c.Get(ctx, "005930"); !errors.Is(err, ErrMiss) {
		t.Fatalf("corrupt entry: err = %v, want ErrMiss", err)
	}
}

func TestRedisCacheInvalidate(t *testing.T) {
	c, _ := newTestRedisCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, sampleQuote()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Invalidate(ctx, "005930"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.Get(ctx, "005930"); !errors.Is(err, ErrMiss) {
		t.Fatalf("after invalidate: err = %v, want ErrMiss", err)
	}
}
