package storage

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisScope_SetGet(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, 0, time.Hour)

	// Setup
	client.Del(ctx, "storefront:test-session:cart")

	s := adapter.Scope("test-session")
	if _, ok, err := s.Get(ctx, "cart"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "cart", `{"version":1}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Verify
	v, ok, err := s.Get(ctx, "cart")
	if err != nil || !ok || v != `{"version":1}` {
		t.Errorf("unexpected read %q %v %v", v, ok, err)
	}
	raw, _ := client.Get(ctx, "storefront:test-session:cart").Result()
	if raw != `{"version":1}` {
		t.Errorf("expected namespaced key, got %q", raw)
	}
	ttl, _ := client.TTL(ctx, "storefront:test-session:cart").Result()
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("expected ttl within an hour, got %v", ttl)
	}
}

func TestRedisScope_QuotaExceeded(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, 16, 0)

	// Setup
	client.Del(ctx, "storefront:quota-session:cart")
	s := adapter.Scope("quota-session")
	if err := s.Set(ctx, "cart", "small"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Test - value over quota is refused
	err := s.Set(ctx, "cart", strings.Repeat("x", 17))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}

	// Verify previous value unchanged
	v, _, _ := s.Get(ctx, "cart")
	if v != "small" {
		t.Errorf("expected small, got %q", v)
	}
}

func TestSetIdempotency_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, 0, 0)

	// Setup
	client.Del(ctx, "test-idem-key")

	// First call should succeed
	ok, err := adapter.SetIdempotency(ctx, "test-idem-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first call to succeed")
	}

	// Second call should fail (key exists)
	ok, err = adapter.SetIdempotency(ctx, "test-idem-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second call to fail")
	}

	// Released key can be claimed again
	if err := adapter.ReleaseIdempotency(ctx, "test-idem-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, _ = adapter.SetIdempotency(ctx, "test-idem-key")
	if !ok {
		t.Error("expected call after release to succeed")
	}
}

func TestSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, 0, 0)

	// Setup
	client.Del(ctx, "concurrent-idem-key")

	var successCount atomic.Int32
	var wg sync.WaitGroup
	concurrency := 100

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(ctx, "concurrent-idem-key")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	// Only one should succeed
	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", successCount.Load())
	}
}
