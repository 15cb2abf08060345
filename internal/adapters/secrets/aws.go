package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"go.uber.org/zap"
)

// AWSSecretsManagerConfig contains configuration for AWS Secrets Manager
type AWSSecretsManagerConfig struct {
	Region   string
	Profile  string // optional shared config profile
	Endpoint string // optional, for LocalStack
	CacheTTL time.Duration
}

// DefaultAWSSecretsManagerConfig returns default configuration
func DefaultAWSSecretsManagerConfig(region string) *AWSSecretsManagerConfig {
	return &AWSSecretsManagerConfig{
		Region:   region,
		CacheTTL: 5 * time.Minute,
	}
}

type awsSecretsManager struct {
	client *secretsmanager.Client
	logger *zap.Logger
	cache  *secretCache
}

// NewAWSSecretsManager creates an AWS Secrets Manager backed secret manager
func NewAWSSecretsManager(ctx context.Context, cfg *AWSSecretsManagerConfig, logger *zap.Logger) (ports.SecretManager, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOptions []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS Secrets Manager initialized",
		zap.String("region", cfg.Region),
		zap.Bool("custom_endpoint", cfg.Endpoint != ""),
	)

	return &awsSecretsManager{
		client: secretsmanager.NewFromConfig(awsConfig, clientOptions...),
		logger: logger,
		cache:  newSecretCache(cfg.CacheTTL, true),
	}, nil
}

// GetSecret fetches the current version of a secret. JSON secret strings are
// flattened into Metadata.
func (m *awsSecretsManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := m.cache.get(path); cached != nil {
		return cached, nil
	}

	result, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		m.logger.Error("Failed to retrieve secret from AWS",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get secret value: %w", err)
	}

	secret := &ports.Secret{
		Value:    aws.ToString(result.SecretString),
		Version:  aws.ToString(result.VersionId),
		Metadata: map[string]string{},
	}
	if result.CreatedDate != nil {
		secret.CreatedAt = result.CreatedDate.Format(time.RFC3339)
	}

	var fields map[string]string
	if json.Unmarshal([]byte(secret.Value), &fields) == nil {
		secret.Metadata = fields
	}

	m.cache.set(path, secret)
	return secret, nil
}
