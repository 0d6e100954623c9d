package checkpointer

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is prepended to every key saved by a RedisStore
// created with an empty prefix
const DefaultRedisPrefix = "lunarlearn:"

// RedisStore is a Store which keeps snapshots as redis string values
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a RedisStore which connects to the redis
// server at addr
func NewRedisStore(addr, prefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return NewRedisStoreFromClient(client, prefix)
}

// NewRedisStoreFromClient returns a RedisStore which uses an existing
// redis client
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client, prefix}
}

// Ping checks that the redis server is reachable
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Save stores data under key with no expiry
func (r *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("save %v: %w", key, err)
	}
	return nil
}

// Load returns the data stored under key
func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load %v: %w", key, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("load %v: %w", key, err)
	}
	return data, nil
}

// Close closes the underlying client
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(key string) string {
	return r.prefix + key
}
