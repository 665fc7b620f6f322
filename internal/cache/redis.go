package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache shares cached values between instances. Values are JSON encoded.
type RedisCache[V any] struct {
	client redis.UniversalClient
	prefix string
	log    *zap.Logger
}

func NewRedisCache[V any](client redis.UniversalClient, prefix string, log *zap.Logger) *RedisCache[V] {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache[V]{client: client, prefix: prefix, log: log}
}

func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}
	value, err := decodeValue[V](raw)
	if err != nil {
		c.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return value, true
}

func (c *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := encodeValue(value)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache[V]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

func encodeValue[V any](value V) ([]byte, error) {
	return json.Marshal(value)
}

func decodeValue[V any](raw []byte) (V, error) {
	var value V
	err := json.Unmarshal(raw, &value)
	return value, err
}

// New returns a redis-backed cache when client is set, otherwise an in-process one.
func New[V any](client *redis.Client, prefix string, log *zap.Logger) Cache[V] {
	if client == nil {
		return NewTTLCache[V]()
	}
	return NewRedisCache[V](client, prefix, log)
}
