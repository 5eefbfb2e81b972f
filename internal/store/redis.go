package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ascache/internal/support"
)

// redisClient is satisfied by *redis.Client.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis stores values as plain redis strings without expiry.
type Redis struct {
	client redisClient
	close  func() error
}

var _ Interface = (*Redis)(nil)

func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	client, err := support.NewRedisClient(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Redis{client: client, close: client.Close}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		return nil, fmt.Errorf("store: redis get %q: %w", key, err)
	}
	return cmd.Bytes()
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("store: redis del %q: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return nil
}

func (r *Redis) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
