package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gateway_config_cache_requests_total",
	Help: "Gateway config cache lookups by result",
}, []string{"result"}) // hit, miss, error

// GatewayConfigStore is the store plus writer the decorator wraps
type GatewayConfigStore interface {
	ports.GatewayConfigStore
	ports.GatewayConfigWriter
}

// GatewayConfigCache is a read-through Redis cache in front of gateway_configs.
// Redis failures fall through to the inner store.
type GatewayConfigCache struct {
	inner  GatewayConfigStore
	cache  Client
	logger ports.Logger
	ttl    time.Duration
}

var (
	_ ports.GatewayConfigStore  = (*GatewayConfigCache)(nil)
	_ ports.GatewayConfigWriter = (*GatewayConfigCache)(nil)
)

// NewGatewayConfigCache wraps inner with a TTL cache
func NewGatewayConfigCache(inner GatewayConfigStore, cache Client, ttl time.Duration, logger ports.Logger) *GatewayConfigCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &GatewayConfigCache{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func configKey(name string) string {
	return "gateway_config:" + name
}

// GetGatewayConfig serves from Redis when possible. Missing configs are not cached.
func (c *GatewayConfigCache) GetGatewayConfig(ctx context.Context, name string) (*domain.GatewayConfig, error) {
	key := configKey(name)

	val, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cfg domain.GatewayConfig
		if jsonErr := json.Unmarshal([]byte(val), &cfg); jsonErr == nil {
			cacheRequests.WithLabelValues("hit").Inc()
			return &cfg, nil
		}
		cacheRequests.WithLabelValues("error").Inc()
	case errors.Is(err, ErrMiss):
		cacheRequests.WithLabelValues("miss").Inc()
	default:
		cacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("Gateway config cache read failed",
			ports.String("gateway", name),
			ports.Err(err),
		)
	}

	cfg, err := c.inner.GetGatewayConfig(ctx, name)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		if b, err := json.Marshal(cfg); err == nil {
			if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
				c.logger.Warn("Gateway config cache write failed",
					ports.String("gateway", name),
					ports.Err(err),
				)
			}
		}
	}
	return cfg, nil
}

// UpsertGatewayConfig writes through and drops the cached entry
func (c *GatewayConfigCache) UpsertGatewayConfig(ctx context.Context, cfg *domain.GatewayConfig) error {
	if err := c.inner.UpsertGatewayConfig(ctx, cfg); err != nil {
		return err
	}
	if err := c.cache.Del(ctx, configKey(cfg.GatewayName)); err != nil {
		c.logger.Warn("Gateway config cache invalidation failed",
			ports.String("gateway", cfg.GatewayName),
			ports.Err(err),
		)
	}
	return nil
}
