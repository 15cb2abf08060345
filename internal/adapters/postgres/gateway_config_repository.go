package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// GatewayConfigRepository stores provider configuration with JSONB credentials
type GatewayConfigRepository struct {
	pool ports.DBTX
}

// NewGatewayConfigRepository creates a gateway config repository
func NewGatewayConfigRepository(db ports.DBPort) *GatewayConfigRepository {
	return &GatewayConfigRepository{pool: db.GetDB()}
}

var (
	_ ports.GatewayConfigStore  = (*GatewayConfigRepository)(nil)
	_ ports.GatewayConfigWriter = (*GatewayConfigRepository)(nil)
)

// GetGatewayConfig returns GatewayNotConfigured when no row exists
func (r *GatewayConfigRepository) GetGatewayConfig(ctx context.Context, name string) (*domain.GatewayConfig, error) {
	var (
		cfg         domain.GatewayConfig
		environment string
		credentials []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT gateway_name, is_active, environment, credentials, updated_at
		FROM gateway_configs WHERE gateway_name = $1`, name).
		Scan(&cfg.GatewayName, &cfg.IsActive, &environment, &credentials, &cfg.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewDomainError(domain.ErrorCodeGatewayNotConfigured, "Payment gateway is not configured").
				WithDetail("gateway", name)
		}
		return nil, fmt.Errorf("get gateway config: %w", err)
	}

	cfg.Environment = domain.Environment(environment)
	cfg.Credentials = map[string]string{}
	if len(credentials) > 0 {
		if err := json.Unmarshal(credentials, &cfg.Credentials); err != nil {
			return nil, fmt.Errorf("decode credentials for %s: %w", name, err)
		}
	}
	return &cfg, nil
}

// UpsertGatewayConfig inserts or replaces a provider's configuration
func (r *GatewayConfigRepository) UpsertGatewayConfig(ctx context.Context, cfg *domain.GatewayConfig) error {
	credentials, err := marshalJSONB(cfg.Credentials)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO gateway_configs (gateway_name, is_active, environment, credentials, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (gateway_name) DO UPDATE
		SET is_active = EXCLUDED.is_active,
		    environment = EXCLUDED.environment,
		    credentials = EXCLUDED.credentials,
		    updated_at = NOW()
		RETURNING updated_at`,
		cfg.GatewayName, cfg.IsActive, string(cfg.Environment), credentials,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert gateway config %s: %w", cfg.GatewayName, err)
	}
	return nil
}
