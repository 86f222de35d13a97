package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

const scanBatchSize = 100

// CacheRepository stores JSON encoded read models in Redis. A nil client turns every call into a miss.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Enabled reports whether a Redis client is configured.
func (r *CacheRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if !r.Enabled() {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// DeleteByPattern removes every key matching pattern and returns how many were removed.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if !r.Enabled() {
		return 0, nil
	}

	keys := []string{}
	iter := r.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete %s: %w", pattern, err)
	}
	r.logger.Debug("cache keys removed", zap.String("pattern", pattern), zap.Int64("removed", removed))
	return int(removed), nil
}

// Ping checks connectivity for readiness probes.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
