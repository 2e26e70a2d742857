package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const notificationKeyPrefix = "pix:webhook:"

// NotificationDeduper records which payment notifications were already relayed.
type NotificationDeduper interface {
	// Claim returns true the first time orderID is seen within the TTL.
	Claim(ctx context.Context, orderID string) (bool, error)
}

// SetNXer is the subset of the Redis client used for claims.
type SetNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type redisNotificationDeduper struct {
	client SetNXer
	ttl    time.Duration
}

// NewRedisNotificationDeduper creates a deduper backed by SET NX with a TTL.
func NewRedisNotificationDeduper(client SetNXer, ttl time.Duration) NotificationDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisNotificationDeduper{client: client, ttl: ttl}
}

func (r *redisNotificationDeduper) Claim(ctx context.Context, orderID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, NotificationKey(orderID), time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim notification %s: %w", orderID, err)
	}
	return ok, nil
}

// NotificationKey is the Redis key holding the claim for orderID.
func NotificationKey(orderID string) string {
	return notificationKeyPrefix + orderID
}

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
