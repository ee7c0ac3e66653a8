package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisTier implements RemoteTier on top of Redis for multi-instance
// consistency of cached match results.
type redisTier struct {
	client *redis.Client
}

// NewRedisTier wraps a Redis client as the shared cache tier.
func NewRedisTier(client *redis.Client) RemoteTier {
	return &redisTier{client: client}
}

func (r *redisTier) Get(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}

	// Remaining TTL lets the local tier inherit the remote deadline instead
	// of restarting the clock.
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		ttl = 0
	}

	return val, ttl, true, nil
}

func (r *redisTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisTier) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// RemoveByPattern deletes keys matching a glob pattern using SCAN, never
// KEYS, so large keyspaces do not block the server.
func (r *redisTier) RemoveByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *redisTier) Clear(ctx context.Context) error {
	return r.client.FlushDB(ctx).Err()
}
