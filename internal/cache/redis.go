package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by one JSON-encoded redis key.
type Redis[T any] struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedis[T any](client redis.Cmdable, key string, ttl time.Duration) *Redis[T] {
	return &Redis[T]{client: client, key: key, ttl: ttl}
}

func (r *Redis[T]) Get(ctx context.Context) (T, bool, error) {
	var value T
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, false, nil
	}
	if err != nil {
		return value, false, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("redis decode %s: %w", r.key, err)
	}
	return value, true, nil
}

func (r *Redis[T]) Set(ctx context.Context, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", r.key, err)
	}
	if err := r.client.Set(ctx, r.key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis[T]) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
