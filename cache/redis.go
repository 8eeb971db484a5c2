package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session snapshots in Redis. A TTL of zero keeps
// entries until explicitly removed.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisStore creates a RedisStore writing keys under prefix. The caller
// owns the client's lifecycle.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		timeout: 2 * time.Second,
	}
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *RedisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns the stored value. Any Redis failure reports a miss.
func (s *RedisStore) Get(key string) (string, bool) {
	ctx, cancel := s.opContext()
	defer cancel()

	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores value under key. Failures are logged and swallowed.
func (s *RedisStore) Set(key, value string) {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		log.Printf("panelAuth: redis cache write failed: %v", err)
	}
}

// Remove deletes key. Failures are logged and swallowed.
func (s *RedisStore) Remove(key string) {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		log.Printf("panelAuth: redis cache delete failed: %v", err)
	}
}
