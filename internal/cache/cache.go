package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/contactbook/contactbook/internal/logger"
)

// Cache is a thin logging wrapper over a Redis client. Misses and failures
// both read as misses.
type Cache struct {
	client *redis.Client
	log    *logger.Logger
}

func New(ctx context.Context, addr string, log *logger.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	log = log.WithComponent("cache")
	log.Info(ctx, "connected to redis", zap.String("addr", addr))
	return &Cache{client: client, log: log}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping is the readiness probe for the cache.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.log.Debug(ctx, "cache miss", zap.String("key", key))
		return "", false
	}
	if err != nil {
		c.log.Warn(ctx, "cache get failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	c.log.Debug(ctx, "cache hit", zap.String("key", key))
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn(ctx, "cache delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
