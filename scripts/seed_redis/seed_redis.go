package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"smart-factory/bridge/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

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

	keys := apiKeys(cfg)
	step1_api_keys(ctx, client, keys)
	step2_verify(ctx, client, len(keys))

	fmt.Println("\n✅ Redis seeded successfully")
	fmt.Println("   Run next: go run ./cmd/bridge")
}

// apiKeys issues one "<factory>_key" per configured factory, plus test_key
// for the default factory. SEED_API_KEYS ("key=factory,...") overrides them.
func apiKeys(cfg *config.Config) map[string]string {
	out := make(map[string]string)
	if raw := os.Getenv("SEED_API_KEYS"); raw != "" {
		for _, entry := range strings.Split(raw, ",") {
			k, v, ok := strings.Cut(strings.TrimSpace(entry), "=")
			if ok && k != "" && v != "" {
				out[k] = v
			}
		}
		return out
	}
	for factory := range cfg.FactoryPartitions {
		out[factory+"_key"] = factory
	}
	out["test_key"] = cfg.DefaultFactory
	return out
}

func step1_api_keys(ctx context.Context, client *redis.Client, keys map[string]string) {
	fmt.Println("\n── Step 1: Seeding API keys ────────────────────")

	// factory:auth:{api_key} → factory key, read by the authenticator
	// on a local cache miss. No TTL.
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, apiKey := range names {
		key := "factory:auth:" + apiKey
		if err := client.Set(ctx, key, keys[apiKey], 0).Err(); err != nil {
			log.Fatalf("Failed to set key %s: %v", key, err)
		}
		fmt.Printf("  ✓ %-45s → %s\n", key, keys[apiKey])
	}
}

func step2_verify(ctx context.Context, client *redis.Client, want int) {
	fmt.Println("\n── Step 2: Verification ────────────────────────")

	keys, err := client.Keys(ctx, "factory:auth:*").Result()
	if err != nil {
		log.Fatalf("Verification failed: %v", err)
	}
	if len(keys) < want {
		log.Fatalf("Expected at least %d API keys, found %d", want, len(keys))
	}
	fmt.Printf("  ✓ %d API keys found in Redis\n", len(keys))
}
