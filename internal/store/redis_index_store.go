package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisIndexStore keeps the set of indexed property keys in Redis so a fresh
// Graph instance reconnecting to a pre-indexed backend can seed its registry.
// It implements graph.IndexStore.
type RedisIndexStore struct {
	client *redis.Client
	key    string
}

// NewRedisIndexStore initializes a Redis-backed index store. namespace keys
// the set, so separate databases keep separate registries.
func NewRedisIndexStore(addr, namespace string) *RedisIndexStore {
	return &RedisIndexStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    "graph:index-keys:" + namespace,
	}
}

// Close closes the Redis client.
func (s *RedisIndexStore) Close() error {
	return s.client.Close()
}

// AddKey records an indexed property key.
func (s *RedisIndexStore) AddKey(ctx context.Context, key string) error {
	return s.client.SAdd(ctx, s.key, key).Err()
}

// RemoveKey forgets an indexed property key.
func (s *RedisIndexStore) RemoveKey(ctx context.Context, key string) error {
	return s.client.SRem(ctx, s.key, key).Err()
}

// Keys returns all recorded index keys.
func (s *RedisIndexStore) Keys(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.key).Result()
}
