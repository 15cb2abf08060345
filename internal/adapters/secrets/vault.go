package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"go.uber.org/zap"
)

// VaultConfig contains configuration for the HashiCorp Vault secret manager
type VaultConfig struct {
	Address    string
	AuthMethod string // "token" or "approle"
	Token      string
	RoleID     string
	SecretID   string
	Namespace  string
	MountPath  string // KV v2 mount, default "secret"
	CacheTTL   time.Duration
}

// DefaultVaultConfig returns default configuration for Vault
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:    address,
		AuthMethod: "token",
		MountPath:  "secret",
		CacheTTL:   5 * time.Minute,
	}
}

type vaultSecretManager struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultSecretManager creates a Vault KV v2 backed secret manager
func NewVaultSecretManager(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (ports.SecretManager, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault secret manager initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
	)

	return &vaultSecretManager{
		client: client,
		config: cfg,
		logger: logger,
		cache:  newSecretCache(cfg.CacheTTL, true),
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret reads mount/data/path. Every string field of the secret is
// exposed through Metadata; Value holds the "value" field when present.
func (m *vaultSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := m.cache.get(path); cached != nil {
		return cached, nil
	}

	fullPath := fmt.Sprintf("%s/data/%s", m.config.MountPath, path)
	startTime := time.Now()

	secret, err := m.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		m.logger.Error("Failed to retrieve secret from Vault",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format from Vault")
	}

	result := &ports.Secret{Metadata: make(map[string]string)}
	for k, v := range data {
		if str, ok := v.(string); ok {
			result.Metadata[k] = str
		}
	}
	result.Value = result.Metadata["value"]

	if metadata, ok := secret.Data["metadata"].(map[string]interface{}); ok {
		if v, ok := metadata["version"].(json.Number); ok {
			result.Version = v.String()
		}
		if ct, ok := metadata["created_time"].(string); ok {
			result.CreatedAt = ct
		}
	}

	m.logger.Debug("Secret retrieved from Vault",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	m.cache.set(path, result)
	return result, nil
}
