package infra_redis_cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Driver is a prefixed string KV used by the course read-through cache.
// Entries carry no TTL and live until explicitly invalidated.
type Driver struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Driver {
	return &Driver{
		client: client,
		prefix: prefix,
	}
}

// Get returns the value and whether the key was present.
func (d *Driver) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := d.client.Get(ctx, d.fullKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return val, true, nil
}

func (d *Driver) Set(ctx context.Context, key string, value string) error {
	if err := d.client.Set(ctx, d.fullKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (d *Driver) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = d.fullKey(k)
	}
	if err := d.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache keys %v: %w", keys, err)
	}
	return nil
}

func (d *Driver) fullKey(key string) string {
	if d.prefix != "" {
		return d.prefix + ":" + key
	}
	return key
}
