package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/config"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
)

const vehicleStateTTL = 7 * 24 * time.Hour

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func VehicleStateKey(vehicleID string) string { return fmt.Sprintf("vehicle:%s:state", vehicleID) }
func APIKeyKey(apiKey string) string          { return fmt.Sprintf("fleet:auth:%s", apiKey) }
func OdometerChannel(fleetID string) string   { return fmt.Sprintf("fleet:%s:odometer", fleetID) }
func AlertChannel(fleetID string) string      { return fmt.Sprintf("fleet:%s:alerts", fleetID) }
func BadgeChannel(fleetID string) string      { return fmt.Sprintf("fleet:%s:badge", fleetID) }

func AlertDedupKey(vehicleID, maintenanceID string, t domain.AlertType) string {
	return fmt.Sprintf("alert:%s:%s:%s", vehicleID, maintenanceID, string(t))
}

func (r *RedisStore) PipelineStateUpdate(ctx context.Context, reading *domain.OdometerReading) error {
	stateData := map[string]interface{}{
		"vehicle_id":  reading.VehicleID,
		"fleet_id":    reading.FleetID,
		"km":          reading.Km,
		"recorded_at": reading.RecordedAt.Unix(),
		"received_at": reading.ReceivedAt.Unix(),
	}

	pubPayload, err := json.Marshal(stateData)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	key := VehicleStateKey(reading.VehicleID)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, stateData)
	pipe.Expire(ctx, key, vehicleStateTTL)
	pipe.Publish(ctx, OdometerChannel(reading.FleetID), pubPayload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// GetAPIKey resolves an API key to its fleet id. Unknown keys return "".
func (r *RedisStore) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	val, err := r.client.Get(ctx, APIKeyKey(apiKey)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get api key failed: %w", err)
	}
	return val, nil
}

// ClaimAlert marks an alert as notified for ttl. It reports false when the
// alert was already claimed, so concurrent evaluators notify at most once.
func (r *RedisStore) ClaimAlert(ctx context.Context, a domain.Alert, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, AlertDedupKey(a.VehicleID, a.MaintenanceID, a.Type), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim failed: %w", err)
	}
	return ok, nil
}

// ReleaseAlert drops a claim so the alert fires again on the next evaluation.
func (r *RedisStore) ReleaseAlert(ctx context.Context, a domain.Alert) error {
	return r.client.Del(ctx, AlertDedupKey(a.VehicleID, a.MaintenanceID, a.Type)).Err()
}

func (r *RedisStore) PublishAlert(ctx context.Context, fleetID string, payload []byte) error {
	return r.client.Publish(ctx, AlertChannel(fleetID), payload).Err()
}

func (r *RedisStore) PublishBadge(ctx context.Context, fleetID string, payload []byte) error {
	return r.client.Publish(ctx, BadgeChannel(fleetID), payload).Err()
}

// SubscribeAlerts subscribes to a fleet's alert and badge channels. The
// caller closes the returned PubSub.
func (r *RedisStore) SubscribeAlerts(ctx context.Context, fleetID string) *redis.PubSub {
	return r.client.Subscribe(ctx, AlertChannel(fleetID), BadgeChannel(fleetID))
}
