package domain

import "time"

// Gateway names
const (
	GatewayEasyPaisa   = "easypaisa"
	GatewayBankAlfalah = "bankalfalah"
	GatewayJazzCash    = "jazzcash"
	GatewayUBL         = "ubl"
)

// Environment selects between provider sandboxes and live endpoints
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// GatewayConfig holds one provider's activation flag, environment and credentials
type GatewayConfig struct {
	UpdatedAt   time.Time         `json:"updated_at"`
	Credentials map[string]string `json:"credentials"`
	GatewayName string            `json:"gateway_name"`
	Environment Environment       `json:"environment"`
	IsActive    bool              `json:"is_active"`
}

// IsSandbox reports whether the config targets the provider sandbox.
// Anything other than production is treated as sandbox.
func (c GatewayConfig) IsSandbox() bool {
	return c.Environment != EnvironmentProduction
}

// Credential returns a credential value or an empty string
func (c GatewayConfig) Credential(key string) string {
	if c.Credentials == nil {
		return ""
	}
	return c.Credentials[key]
}

// Version identifies a config revision for adapter caching
func (c GatewayConfig) Version() string {
	return c.GatewayName + "@" + c.UpdatedAt.UTC().Format(time.RFC3339Nano)
}
