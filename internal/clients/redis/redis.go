package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/daleelapp/daleel-backend/internal/config"
	"github.com/daleelapp/daleel-backend/internal/logger"
)

// Cache is a thin get/set wrapper over redis used for short-lived response
// caching. A nil *Cache is valid and behaves as a cache that always misses.
type Cache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewCache(cfg config.RedisConfig, log *logger.Logger) (*Cache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{log: log.With("client", "RedisCache"), rdb: rdb}, nil
}

// Get returns the cached value for key, or "" on a miss or error.
func (c *Cache) Get(ctx context.Context, key string) string {
	if c == nil {
		return ""
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Redis get failed", "key", key, "error", err)
		}
		return ""
	}
	return val
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn("Redis set failed", "key", key, "error", err)
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
