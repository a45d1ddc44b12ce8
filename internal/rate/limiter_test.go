package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterEnforcesLimit(t *testing.T) {
	l := NewMemory(3, time.Minute)
	now := time.Now()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := l.Allow(ctx, "10.0.0.1", now)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter, err := l.Allow(ctx, "10.0.0.1", now)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Fatal("fourth request should be denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("retryAfter = %v, want positive", retryAfter)
	}
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	l := NewMemory(1, time.Minute)
	now := time.Now()
	ctx := context.Background()

	if allowed, _, _ := l.Allow(ctx, "k", now); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _, _ := l.Allow(ctx, "k", now); allowed {
		t.Fatal("second request inside window should be denied")
	}
	if allowed, _, _ := l.Allow(ctx, "k", now.Add(61*time.Second)); !allowed {
		t.Fatal("request after window should be allowed")
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemory(1, time.Minute)
	now := time.Now()
	ctx := context.Background()

	if allowed, _, _ := l.Allow(ctx, "a", now); !allowed {
		t.Fatal("key a should be allowed")
	}
	if allowed, _, _ := l.Allow(ctx, "b", now); !allowed {
		t.Fatal("key b should not share key a's budget")
	}
}
