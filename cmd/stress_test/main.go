package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront-cart/internal/adapter/storage"
	"github.com/rl1809/storefront-cart/internal/config"
	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/core/service"
)

const (
	totalRequests = 200
	maxQuantity   = 150
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	sessionID := "stress-" + uuid.NewString()
	defer rdb.Del(ctx, "storefront:"+sessionID+":cart")

	adapter := storage.NewRedisAdapter(rdb, cfg.StorageQuotaBytes, time.Hour)
	registry := service.NewRegistry(adapter.Scope, nil, service.RegistryConfig{PersistTimeout: 5 * time.Second}, nil)
	sf := registry.Open(ctx, sessionID)

	item := domain.NewLineItemInput{
		ProductID:   "stress-mattress",
		Name:        "Cloud Hybrid",
		UnitPrice:   59999,
		Size:        "Queen",
		Firmness:    "Medium",
		MaxQuantity: maxQuantity,
	}

	var eventCount int
	var mu sync.Mutex
	sf.Bus.Subscribe(func(evt domain.Event) {
		mu.Lock()
		eventCount++
		mu.Unlock()
	})

	// Spawn concurrent adds of the same variant
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sf.Cart.AddItem(ctx, item, 1)
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	items := sf.Cart.Items()
	expected := min(totalRequests, maxQuantity)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Concurrent Adds:  %d\n", totalRequests)
	fmt.Printf("Max Quantity:     %d\n", maxQuantity)
	fmt.Printf("Lines:            %d\n", len(items))
	fmt.Printf("Events:           %d\n", eventCount)
	fmt.Printf("Persistence:      degraded=%v\n", sf.Persistence.Degraded())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if len(items) == 1 && items[0].Quantity == expected {
		fmt.Printf("PASS: One line with quantity %d\n", expected)
	} else {
		fmt.Printf("FAIL: Expected one line with quantity %d, got %+v\n", expected, items)
	}

	if eventCount == expected {
		fmt.Printf("PASS: %d change events, clamped adds were silent\n", eventCount)
	} else {
		fmt.Printf("FAIL: Expected %d events, got %d\n", expected, eventCount)
	}

	// Verify the persisted copy reloads identically
	reloaded := service.NewRegistry(adapter.Scope, nil, service.RegistryConfig{}, nil).Open(ctx, sessionID)
	got := reloaded.Cart.Items()
	if len(got) == 1 && got[0] == items[0] {
		fmt.Println("PASS: Reloaded cart matches")
	} else {
		fmt.Printf("FAIL: Reloaded cart differs: %+v\n", got)
	}
}
