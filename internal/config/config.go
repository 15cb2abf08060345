// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

// EnvPrefix marks variables read by Load. Nested keys use a double underscore,
// e.g. FEATURED_DATABASE__HOST.
const EnvPrefix = "FEATURED_"

// Config holds all application configuration
type Config struct {
	Environment string          `koanf:"environment" validate:"required,oneof=development staging production"`
	Server      ServerConfig    `koanf:"server"`
	Database    DatabaseConfig  `koanf:"database"`
	Gateway     GatewayConfig   `koanf:"gateway"`
	Redis       RedisConfig     `koanf:"redis"`
	Auth        AuthConfig      `koanf:"auth"`
	Secrets     SecretsConfig   `koanf:"secrets"`
	Metrics     MetricsConfig   `koanf:"metrics"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
	Logger      LoggerConfig    `koanf:"logger"`
}

// ServerConfig holds the public HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required"`
	PublicBaseURL   string        `koanf:"public_base_url" validate:"required,url"`
	SuccessURL      string        `koanf:"success_url" validate:"required,url"`
	FailureURL      string        `koanf:"failure_url" validate:"required,url"`
	// TrustedProxies is a comma-separated CIDR list. Only peers inside it may
	// set the client address through X-Forwarded-For or X-Real-IP.
	TrustedProxies string `koanf:"trusted_proxies"`
}

// TrustedProxyCIDRs splits TrustedProxies, dropping blanks
func (s ServerConfig) TrustedProxyCIDRs() []string {
	var cidrs []string
	for _, c := range strings.Split(s.TrustedProxies, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cidrs = append(cidrs, c)
		}
	}
	return cidrs
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required,oneof=disable require verify-ca verify-full"`
	MaxConns        int32         `koanf:"max_conns" validate:"required,min=1"`
	MinConns        int32         `koanf:"min_conns" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime" validate:"required"`
	QueryTimeout    time.Duration `koanf:"query_timeout" validate:"required"`
}

// GatewayConfig holds outbound provider call settings
type GatewayConfig struct {
	HTTPTimeout        time.Duration `koanf:"http_timeout" validate:"required"`
	BreakerMaxFailures int           `koanf:"breaker_max_failures" validate:"required,min=1"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout" validate:"required"`
	BreakerHalfOpenMax int           `koanf:"breaker_half_open_max" validate:"required,min=1"`
}

// RedisConfig holds the gateway config cache settings
type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Addr     string        `koanf:"addr" validate:"required_if=Enabled true"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"min=0"`
	TTL      time.Duration `koanf:"ttl" validate:"required"`
}

// AuthConfig holds the seller JWT settings
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret" validate:"required,min=32"`
	Issuer    string        `koanf:"issuer" validate:"required"`
	TokenTTL  time.Duration `koanf:"token_ttl" validate:"required"`
}

// SecretsConfig selects where secret:<path>#<key> credential references resolve
type SecretsConfig struct {
	Manager        string        `koanf:"manager" validate:"required,oneof=local vault aws"`
	LocalPath      string        `koanf:"local_path" validate:"required_if=Manager local"`
	VaultAddress   string        `koanf:"vault_address" validate:"required_if=Manager vault"`
	VaultToken     string        `koanf:"vault_token"`
	VaultRoleID    string        `koanf:"vault_role_id"`
	VaultSecretID  string        `koanf:"vault_secret_id"`
	VaultMountPath string        `koanf:"vault_mount_path"`
	AWSRegion      string        `koanf:"aws_region" validate:"required_if=Manager aws"`
	AWSEndpoint    string        `koanf:"aws_endpoint"`
	CacheTTL       time.Duration `koanf:"cache_ttl" validate:"required"`
}

// MetricsConfig holds the Prometheus and health server settings
type MetricsConfig struct {
	Port int `koanf:"port" validate:"required,min=1,max=65535"`
}

// RateLimitConfig bounds gateway-facing routes per client IP
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"rps" validate:"required,gt=0"`
	Burst             int     `koanf:"burst" validate:"required,min=1"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"environment": "development",

		"server.port":             8080,
		"server.read_timeout":     "15s",
		"server.write_timeout":    "45s",
		"server.idle_timeout":     "60s",
		"server.shutdown_timeout": "30s",
		"server.public_base_url":  "http://localhost:8080",
		"server.success_url":      "http://localhost:3000/featured/success",
		"server.failure_url":      "http://localhost:3000/featured/failure",

		"database.host":              "localhost",
		"database.port":              5432,
		"database.user":              "postgres",
		"database.name":              "ncpwheels",
		"database.ssl_mode":          "disable",
		"database.max_conns":         25,
		"database.min_conns":         5,
		"database.max_conn_lifetime": "1h",
		"database.query_timeout":     "5s",

		"gateway.http_timeout":          "30s",
		"gateway.breaker_max_failures":  5,
		"gateway.breaker_open_timeout":  "30s",
		"gateway.breaker_half_open_max": 1,

		"redis.enabled": false,
		"redis.addr":    "localhost:6379",
		"redis.db":      0,
		"redis.ttl":     "5m",

		"auth.issuer":    "ncpwheels",
		"auth.token_ttl": "24h",

		"secrets.manager":    "local",
		"secrets.local_path": "./secrets",
		"secrets.cache_ttl":  "5m",

		"metrics.port": 9090,

		"rate_limit.rps":   10,
		"rate_limit.burst": 20,

		"logger.level": "info",
	}
}

// Load reads defaults, then FEATURED_* environment variables (a .env file is
// loaded first when present), then validates the result
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ConnectionString returns the PostgreSQL URL for pgxpool
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
