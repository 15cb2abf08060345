// Package bootstrap builds the infrastructure shared by the service binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ncpwheels/featured-payments/internal/adapters/cache"
	"github.com/ncpwheels/featured-payments/internal/adapters/postgres"
	"github.com/ncpwheels/featured-payments/internal/adapters/secrets"
	"github.com/ncpwheels/featured-payments/internal/config"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/ncpwheels/featured-payments/pkg/resilience"
	"github.com/ncpwheels/featured-payments/pkg/security"
)

const connectAttempts = 6

// Runtime carries the loaded config and loggers
type Runtime struct {
	Config *config.Config
	Zap    *zap.Logger
	Logger ports.Logger
}

// Load reads configuration and builds the zap logger
func Load() (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	zl, err := security.NewLogger(cfg.Logger.Level, cfg.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return &Runtime{Config: cfg, Zap: zl, Logger: security.NewZapLogger(zl)}, nil
}

// OpenDatabase connects to Postgres, retrying while the database comes up
func (rt *Runtime) OpenDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	db := rt.Config.Database
	pgCfg := postgres.DefaultConfig(db.ConnectionString())
	pgCfg.MaxConns = db.MaxConns
	pgCfg.MinConns = db.MinConns
	pgCfg.MaxConnLifetime = db.MaxConnLifetime
	pgCfg.QueryTimeout = db.QueryTimeout

	var pool *pgxpool.Pool
	err := resilience.Retry(ctx, connectAttempts, resilience.StartupBackoff(),
		func(ctx context.Context) error {
			var err error
			pool, err = postgres.Connect(ctx, pgCfg, rt.Zap)
			return err
		},
		func(attempt int, err error) {
			rt.Logger.Warn("Database not ready, retrying",
				ports.Int("attempt", attempt),
				ports.String("host", db.Host),
				ports.Err(err),
			)
		},
	)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewSecretManager builds the manager selected by FEATURED_SECRETS__MANAGER
func (rt *Runtime) NewSecretManager(ctx context.Context) (ports.SecretManager, error) {
	sc := rt.Config.Secrets

	switch sc.Manager {
	case "vault":
		vc := secrets.DefaultVaultConfig(sc.VaultAddress)
		vc.Token = sc.VaultToken
		if sc.VaultRoleID != "" {
			vc.AuthMethod = "approle"
			vc.RoleID = sc.VaultRoleID
			vc.SecretID = sc.VaultSecretID
		}
		if sc.VaultMountPath != "" {
			vc.MountPath = sc.VaultMountPath
		}
		vc.CacheTTL = sc.CacheTTL
		return secrets.NewVaultSecretManager(ctx, vc, rt.Zap)
	case "aws":
		ac := secrets.DefaultAWSSecretsManagerConfig(sc.AWSRegion)
		ac.Endpoint = sc.AWSEndpoint
		ac.CacheTTL = sc.CacheTTL
		return secrets.NewAWSSecretsManager(ctx, ac, rt.Zap)
	default:
		if !rt.Config.IsDevelopment() {
			rt.Logger.Warn("Local secret manager in use outside development",
				ports.String("environment", rt.Config.Environment),
			)
		}
		return secrets.NewLocalSecretManager(sc.LocalPath, rt.Zap), nil
	}
}

// GatewayConfigs returns the gateway config store, fronted by Redis when enabled.
// The returned client is nil when Redis is disabled or unreachable at startup.
func (rt *Runtime) GatewayConfigs(ctx context.Context, db ports.DBPort) (cache.GatewayConfigStore, cache.Client) {
	repo := postgres.NewGatewayConfigRepository(db)

	rc := rt.Config.Redis
	if !rc.Enabled {
		return repo, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := cache.NewRedisClient(pingCtx, cache.RedisConfig{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err != nil {
		rt.Logger.Warn("Redis unavailable, gateway configs read from Postgres",
			ports.String("addr", rc.Addr),
			ports.Err(err),
		)
		return repo, nil
	}

	rt.Logger.Info("Gateway config cache enabled",
		ports.String("addr", rc.Addr),
		ports.Duration("ttl", rc.TTL),
	)
	return cache.NewGatewayConfigCache(repo, client, rc.TTL, rt.Logger), client
}
