// Package cache holds Redis-backed read-through caches.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Client.Get when the key does not exist
var ErrMiss = errors.New("cache miss")

// Client is the subset of Redis the caches use
type Client interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

// RedisConfig holds connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type redisClient struct {
	cli *redis.Client
}

var _ Client = (*redisClient)(nil)

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, cfg RedisConfig) (Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &redisClient{cli: c}, nil
}

func (c *redisClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (c *redisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.cli.Set(ctx, key, value, expiration).Err()
}

func (c *redisClient) Del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}

func (c *redisClient) Close() error { return c.cli.Close() }
