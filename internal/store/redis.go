package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smart-factory/bridge/internal/config"
	"smart-factory/bridge/internal/domain"
)

const stateTTL = 10 * time.Minute

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client), nil
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func StateKey(factoryKey, system string) string {
	return fmt.Sprintf("factory:%s:system:%s:state", factoryKey, system)
}

func TelemetryChannel(factoryKey string) string {
	return fmt.Sprintf("factory:%s:telemetry", factoryKey)
}

func AlertChannel(factoryKey string) string {
	return fmt.Sprintf("factory:%s:alerts", factoryKey)
}

// stateFields flattens a record into hash fields. Null values become "".
func stateFields(factory domain.Factory, rec *domain.Record) map[string]any {
	fields := map[string]any{
		"factory":            factory.Key,
		domain.ColSystemName: rec.Name,
		domain.ColTimestamp:  rec.Timestamp.Unix(),
	}
	for _, col := range rec.System.CanonicalColumns() {
		fields[col] = rec.Text(col, "")
	}
	return fields
}

// PublishState refreshes the subsystem's live state hash and fans the
// reading out on the factory telemetry channel.
func (r *RedisStore) PublishState(ctx context.Context, factory domain.Factory, rec *domain.Record) error {
	stateData := stateFields(factory, rec)

	pubPayload, err := json.Marshal(stateData)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	stateKey := StateKey(factory.Key, rec.Name)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, stateKey, stateData)
	pipe.Expire(ctx, stateKey, stateTTL)
	pipe.Publish(ctx, TelemetryChannel(factory.Key), pubPayload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

func (r *RedisStore) PublishAlert(ctx context.Context, event domain.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}
	return r.client.Publish(ctx, AlertChannel(event.FactoryKey), payload).Err()
}

// GetAPIKey returns the factory key an API key belongs to, or "" when unknown.
func (r *RedisStore) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	key := fmt.Sprintf("factory:auth:%s", apiKey)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get api key failed: %w", err)
	}
	return val, nil
}
