package staging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Store is the key-hash interface the analytics pipeline needs from the
// staging layer. Keys are opaque strings prefixed by category.
type Store interface {
	ListKeys(ctx context.Context, pattern string) ([]string, error)
	ReadHash(ctx context.Context, key string) (map[string]string, error)
	WriteHash(ctx context.Context, key string, fields map[string]string) error
	DeleteKey(ctx context.Context, key string) error
}

// RedisStore implements Store against a Redis instance.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis instance at the given URL
// (e.g. "redis://localhost:6379/0") and verifies connectivity.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("[Staging] Connected to redis", "addr", opts.Addr, "db", opts.DB)
	return &RedisStore{client: client}, nil
}

// ListKeys returns all keys matching the glob pattern. Uses SCAN rather
// than KEYS so a large backlog cannot block the server.
func (s *RedisStore) ListKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string

	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys %q: %w", pattern, err)
	}

	return keys, nil
}

// ReadHash returns all fields of a hash key. A missing key yields an empty map.
func (s *RedisStore) ReadHash(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read hash %q: %w", key, err)
	}
	return fields, nil
}

// WriteHash sets all fields of a hash key, overwriting existing fields.
func (s *RedisStore) WriteHash(ctx context.Context, key string, fields map[string]string) error {
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("write hash %q: %w", key, err)
	}
	return nil
}

// DeleteKey removes a key. Deleting a missing key is not an error.
func (s *RedisStore) DeleteKey(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}

// Ping reports staging store connectivity. Used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
