package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPersistence_SaveLoadRoundTrip(t *testing.T) {
	kv := newMockKVStore()
	p := NewPersistence(kv, nil)
	ctx := context.Background()

	p.Save(ctx, "k", map[string]int{"a": 1})

	var got map[string]int
	if !p.Load(ctx, "k", &got) {
		t.Fatal("expected value to load")
	}
	if got["a"] != 1 {
		t.Errorf("expected 1, got %d", got["a"])
	}

	var missing map[string]int
	if p.Load(ctx, "absent", &missing) {
		t.Error("expected absent key to report false")
	}
}

func TestPersistence_DegradesOnceOnWriteFailure(t *testing.T) {
	kv := newMockKVStore()
	kv.failSet = true

	var hookErrs []error
	p := NewPersistence(kv, nil, WithDegradedHook(func(err error) { hookErrs = append(hookErrs, err) }))
	ctx := context.Background()

	p.Save(ctx, "k", 1)
	p.Save(ctx, "k", 2)

	if !p.Degraded() {
		t.Error("expected adapter to be degraded")
	}
	if len(hookErrs) != 1 {
		t.Errorf("expected hook to run once, ran %d times", len(hookErrs))
	}
	if kv.setCalls != 1 {
		t.Errorf("expected no writes after degrading, got %d attempts", kv.setCalls)
	}

	var v int
	if p.Load(ctx, "k", &v) {
		t.Error("expected loads to be skipped once degraded")
	}
}

func TestPersistence_RetriesAfterCooldown(t *testing.T) {
	kv := newMockKVStore()
	kv.failSet = true

	degradedHooks, recoveredHooks := 0, 0
	p := NewPersistence(kv, nil,
		WithRetryAfter(time.Minute),
		WithDegradedHook(func(error) { degradedHooks++ }),
		WithRecoveredHook(func() { recoveredHooks++ }),
	)
	now := time.Now()
	p.now = func() time.Time { return now }
	ctx := context.Background()

	p.Save(ctx, "k", 1)
	p.Save(ctx, "k", 2)
	if kv.setCalls != 1 {
		t.Fatalf("expected no retry inside the cooldown, got %d attempts", kv.setCalls)
	}

	now = now.Add(2 * time.Minute)
	p.Save(ctx, "k", 3)
	if kv.setCalls != 2 || !p.Degraded() {
		t.Fatalf("expected one failed retry, got %d attempts, degraded=%v", kv.setCalls, p.Degraded())
	}

	kv.failSet = false
	p.Save(ctx, "k", 4)
	if kv.setCalls != 2 {
		t.Fatalf("expected failed retry to restart the cooldown, got %d attempts", kv.setCalls)
	}

	now = now.Add(2 * time.Minute)
	p.Save(ctx, "k", 5)
	if p.Degraded() || p.Pending() != 0 {
		t.Fatalf("expected recovery, degraded=%v pending=%d", p.Degraded(), p.Pending())
	}
	if kv.data["k"] != "5" {
		t.Errorf("expected latest value written back, got %q", kv.data["k"])
	}
	if degradedHooks != 1 || recoveredHooks != 1 {
		t.Errorf("expected one degraded and one recovered hook, got %d/%d", degradedHooks, recoveredHooks)
	}

	p.Save(ctx, "k", 6)
	if kv.data["k"] != "6" {
		t.Errorf("expected direct writes after recovery, got %q", kv.data["k"])
	}
}

func TestPersistence_FlushWritesPendingState(t *testing.T) {
	kv := newMockKVStore()
	kv.failSet = true
	p := NewPersistence(kv, nil)
	ctx := context.Background()

	p.Save(ctx, "cart", 1)
	p.Save(ctx, "wishlist", 2)
	p.Save(ctx, "cart", 3)

	if p.Flush(ctx) {
		t.Fatal("expected flush to fail while the store is down")
	}
	if p.Pending() != 2 {
		t.Fatalf("expected 2 pending keys, got %d", p.Pending())
	}

	kv.failSet = false
	if !p.Flush(ctx) {
		t.Fatal("expected flush to succeed")
	}
	if kv.data["cart"] != "3" || kv.data["wishlist"] != "2" {
		t.Errorf("unexpected stored state %v", kv.data)
	}
	if p.Degraded() {
		t.Error("expected adapter to recover")
	}
}

func TestPersistence_DegradesOnReadFailure(t *testing.T) {
	kv := newMockKVStore()
	kv.failGet = true
	p := NewPersistence(kv, nil)

	var v int
	if p.Load(context.Background(), "k", &v) {
		t.Error("expected load to fail quietly")
	}
	if !p.Degraded() {
		t.Error("expected adapter to be degraded")
	}
}

func TestPersistence_CancelledCallerDoesNotDegrade(t *testing.T) {
	kv := &ctxCheckingStore{mockKVStore: newMockKVStore()}
	p := NewPersistence(kv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Save(ctx, "k", 1)

	if p.Degraded() {
		t.Error("expected cancelled request context not to degrade persistence")
	}
}

func TestPersistence_NilStoreIsMemoryOnly(t *testing.T) {
	p := NewPersistence(nil, nil)
	p.Save(context.Background(), "k", 1)
	if !p.Degraded() {
		t.Error("expected nil store to run in memory only")
	}
	if !p.Flush(context.Background()) {
		t.Error("expected nothing to flush without a store")
	}
}

type ctxCheckingStore struct {
	*mockKVStore
}

func (s *ctxCheckingStore) Set(ctx context.Context, key, value string) error {
	if ctx.Err() != nil {
		return errors.New("context cancelled")
	}
	return s.mockKVStore.Set(ctx, key, value)
}
