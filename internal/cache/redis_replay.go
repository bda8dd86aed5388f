package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisReplayCache struct {
	client *redis.Client
}

func NewRedisReplayCache(addr string, password string, db int) *RedisReplayCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisReplayCache{client: client}
}

func (c *RedisReplayCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisReplayCache) Close() error {
	return c.client.Close()
}

func (c *RedisReplayCache) MarkUsed(ctx context.Context, signature string, ttl time.Duration) (bool, error) {
	// SETNX: only the first presenter of a signature wins the slot.
	return c.client.SetNX(ctx, "qr:used:"+signature, 1, ttl).Result()
}
