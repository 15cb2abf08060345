// Package gateway turns stored gateway configuration into ready adapters.
package gateway

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/bankalfalah"
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/easypaisa"
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/jazzcash"
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/ubl"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	adapterCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_adapter_cache_hits_total",
		Help: "Adapter lookups served from the registry cache",
	})

	adapterBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_adapter_builds_total",
		Help: "Adapters constructed from gateway configuration",
	}, []string{"gateway"})
)

// Factory builds an adapter from a gateway config with resolved credentials
type Factory func(cfg domain.GatewayConfig, deps gatewayhttp.Deps) (ports.GatewayAdapter, error)

// DefaultFactories covers every supported provider
func DefaultFactories() map[string]Factory {
	return map[string]Factory{
		domain.GatewayEasyPaisa: func(cfg domain.GatewayConfig, deps gatewayhttp.Deps) (ports.GatewayAdapter, error) {
			return easypaisa.New(cfg, deps)
		},
		domain.GatewayBankAlfalah: func(cfg domain.GatewayConfig, deps gatewayhttp.Deps) (ports.GatewayAdapter, error) {
			return bankalfalah.New(cfg, deps)
		},
		domain.GatewayJazzCash: func(cfg domain.GatewayConfig, deps gatewayhttp.Deps) (ports.GatewayAdapter, error) {
			return jazzcash.New(cfg, deps)
		},
		domain.GatewayUBL: func(cfg domain.GatewayConfig, deps gatewayhttp.Deps) (ports.GatewayAdapter, error) {
			return ubl.New(cfg, deps)
		},
	}
}

// CredentialResolver expands secret references in stored credentials
type CredentialResolver interface {
	ResolveCredentials(ctx context.Context, creds map[string]string) (map[string]string, error)
}

type cachedAdapter struct {
	version string
	adapter ports.GatewayAdapter
}

// Registry resolves gateway names to adapters
type Registry struct {
	store      ports.GatewayConfigStore
	resolver   CredentialResolver
	httpClient ports.HTTPClient
	logger     ports.Logger
	factories  map[string]Factory
	breakerCfg gatewayhttp.CircuitBreakerConfig

	mu       sync.Mutex
	adapters map[string]cachedAdapter
	breakers map[string]*gatewayhttp.CircuitBreaker
}

// Option configures a Registry
type Option func(*Registry)

// WithFactories replaces the provider factory table
func WithFactories(f map[string]Factory) Option {
	return func(r *Registry) { r.factories = f }
}

// WithCredentialResolver enables secret:<path>#<key> credential values
func WithCredentialResolver(resolver CredentialResolver) Option {
	return func(r *Registry) { r.resolver = resolver }
}

// WithCircuitBreakerConfig sets the per-provider breaker settings
func WithCircuitBreakerConfig(cfg gatewayhttp.CircuitBreakerConfig) Option {
	return func(r *Registry) { r.breakerCfg = cfg }
}

// NewRegistry creates a registry backed by store
func NewRegistry(store ports.GatewayConfigStore, httpClient ports.HTTPClient, logger ports.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:      store,
		httpClient: httpClient,
		logger:     logger,
		factories:  DefaultFactories(),
		breakerCfg: gatewayhttp.DefaultCircuitBreakerConfig(),
		adapters:   make(map[string]cachedAdapter),
		breakers:   make(map[string]*gatewayhttp.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Supported lists the provider names the registry can build
func (r *Registry) Supported() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the adapter for name.
// Errors: GatewayNotConfigured when no usable config exists, GatewayDisabled
// when the config is switched off.
func (r *Registry) Resolve(ctx context.Context, name string) (ports.GatewayAdapter, error) {
	cfg, err := r.store.GetGatewayConfig(ctx, name)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "Failed to load gateway configuration", err)
	}
	if cfg == nil {
		return nil, notConfigured(name, nil)
	}
	if !cfg.IsActive {
		return nil, domain.NewDomainError(domain.ErrorCodeGatewayDisabled, "Payment gateway is disabled").
			WithDetail("gateway", name)
	}

	factory, ok := r.factories[name]
	if !ok {
		return nil, notConfigured(name, errors.New("unsupported provider"))
	}

	version := cfg.Version()

	r.mu.Lock()
	if cached, ok := r.adapters[name]; ok && cached.version == version {
		r.mu.Unlock()
		adapterCacheHits.Inc()
		return cached.adapter, nil
	}
	breaker := r.breakerFor(name)
	r.mu.Unlock()

	// r.mu is not held from here; secret lookups can be remote
	resolved := *cfg
	if r.resolver != nil {
		creds, err := r.resolver.ResolveCredentials(ctx, cfg.Credentials)
		if err != nil {
			r.logger.Error("Failed to resolve gateway credentials",
				ports.String("gateway", name),
				ports.Err(err),
			)
			return nil, notConfigured(name, err)
		}
		resolved.Credentials = creds
	}

	adapter, err := factory(resolved, gatewayhttp.Deps{
		HTTPClient: r.httpClient,
		Breaker:    breaker,
		Logger:     r.logger,
	})
	if err != nil {
		r.logger.Warn("Gateway configuration rejected by adapter",
			ports.String("gateway", name),
			ports.Err(err),
		)
		return nil, notConfigured(name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A concurrent Resolve may have built the same version first
	if cached, ok := r.adapters[name]; ok && cached.version == version {
		return cached.adapter, nil
	}

	adapterBuilds.WithLabelValues(name).Inc()
	r.logger.Info("Gateway adapter built",
		ports.String("gateway", name),
		ports.String("environment", string(cfg.Environment)),
	)
	r.adapters[name] = cachedAdapter{version: version, adapter: adapter}
	return adapter, nil
}

// breakerFor keeps one breaker per provider across config reloads. Caller holds r.mu.
func (r *Registry) breakerFor(name string) *gatewayhttp.CircuitBreaker {
	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb := gatewayhttp.NewCircuitBreaker(r.breakerCfg)
	r.breakers[name] = cb
	return cb
}

func notConfigured(name string, cause error) error {
	if cause == nil {
		return domain.NewDomainError(domain.ErrorCodeGatewayNotConfigured, "Payment gateway is not configured").
			WithDetail("gateway", name)
	}
	return domain.WrapError(domain.ErrorCodeGatewayNotConfigured, "Payment gateway is not configured", cause).
		WithDetail("gateway", name)
}
