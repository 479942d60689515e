package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

// Connect returns a client for addr, which may be a host:port pair or a
// redis:// URL. It returns nil when Redis is unreachable; callers then run
// without a cache.
func Connect(ctx context.Context, addr, password string) *redis.Client {
	logger := log.With().Str("component", "redis").Logger()
	if addr == "" {
		logger.Info().Msg("REDIS_URL not set, running without cache")
		return nil
	}

	opts := &redis.Options{Addr: addr, Password: password, DB: 0}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			logger.Warn().Err(err).Msg("invalid REDIS_URL, running without cache")
			return nil
		}
		if password != "" {
			parsed.Password = password
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("could not connect to Redis, running without cache")
		client.Close()
		return nil
	}

	logger.Info().Str("addr", opts.Addr).Msg("connected")
	return client
}

// RedisCache stores serialized values under string keys.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, expiration).Err()
}

// Get returns domain.ErrCacheMiss when the key is absent or expired.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	return v, err
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	return r.client.Del(ctx, full...).Err()
}
