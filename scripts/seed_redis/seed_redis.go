package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/config"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/store"
)

func main() {
	cfg := config.Load()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	ctx := context.Background()

	fmt.Println("Connecting to Redis...")
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Redis is running:\n  docker-compose up -d redis", err)
	}
	fmt.Println("✓ Connected")

	step1_api_keys(ctx, client)
	step2_verify(ctx, client)

	fmt.Println("\n✅ Redis seeded successfully")
	fmt.Println("   Run next: go run ./cmd/server")
}

// demoKeys maps API keys to the fleet they unlock.
var demoKeys = map[string]string{
	"demo_fleet_key":  "demo_fleet",
	"fleet_north_key": "fleet_north",
	"fleet_south_key": "fleet_south",
	"test_key":        "test_fleet",
}

func step1_api_keys(ctx context.Context, client *redis.Client) {
	fmt.Println("\n── Step 1: Seeding API keys ────────────────────")

	// No TTL: keys stay until revoked.
	for apiKey, fleetID := range demoKeys {
		key := store.APIKeyKey(apiKey)
		if err := client.Set(ctx, key, fleetID, 0).Err(); err != nil {
			log.Fatalf("Failed to set key %s: %v", key, err)
		}
		fmt.Printf("  ✓ %-32s → %s\n", key, fleetID)
	}
}

func step2_verify(ctx context.Context, client *redis.Client) {
	fmt.Println("\n── Step 2: Verification ────────────────────────")

	keys, err := client.Keys(ctx, store.APIKeyKey("*")).Result()
	if err != nil {
		log.Fatalf("Verification failed: %v", err)
	}
	fmt.Printf("  ✓ %d API keys found in Redis\n", len(keys))

	val, err := client.Get(ctx, store.APIKeyKey("test_key")).Result()
	if err != nil {
		log.Fatalf("Spot check failed: %v", err)
	}
	fmt.Printf("  ✓ spot check: %s → %s\n", store.APIKeyKey("test_key"), val)
}
