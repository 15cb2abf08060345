package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"go.uber.org/zap"
)

// localSecretManager reads secrets from files under basePath.
// Development only; use Vault or AWS Secrets Manager in production.
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretManager creates a filesystem-backed secret manager
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManager {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret reads basePath/secretPath. A JSON object becomes Metadata so
// individual keys can be addressed; anything else is returned as Value.
func (m *localSecretManager) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	filePath := filepath.Join(m.basePath, filepath.Clean("/"+secretPath))

	m.logger.Debug("Reading secret from filesystem",
		zap.String("path", secretPath),
	)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secret not found: %s", secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err == nil {
		return &ports.Secret{
			Value:    fields["value"],
			Version:  "local",
			Metadata: fields,
		}, nil
	}

	return &ports.Secret{
		Value:    strings.TrimSpace(string(data)),
		Version:  "local",
		Metadata: map[string]string{},
	}, nil
}
