package gatewayhttp

import (
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// ResponseCodeInfo describes one provider response code
type ResponseCodeInfo struct {
	Code        string
	Description string
	Status      domain.GatewayStatus
}

// CodeTable maps provider response codes to normalized outcomes
type CodeTable map[string]ResponseCodeInfo

// Lookup returns the entry for code. Unknown codes fail closed.
func (t CodeTable) Lookup(code string) ResponseCodeInfo {
	if info, ok := t[code]; ok {
		return info
	}
	return ResponseCodeInfo{
		Code:        code,
		Description: "Unknown response code",
		Status:      domain.GatewayStatusFailed,
	}
}

// Deps are the collaborators every provider adapter is built with
type Deps struct {
	HTTPClient ports.HTTPClient
	Breaker    *CircuitBreaker
	Logger     ports.Logger
}

// RawPayload copies a string map into the generic form stored for audit
func RawPayload(payload map[string]string) map[string]interface{} {
	raw := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		raw[k] = v
	}
	return raw
}

// RequireFields returns InvalidPayload naming the first missing field
func RequireFields(gateway string, payload map[string]string, fields ...string) error {
	for _, f := range fields {
		if payload[f] == "" {
			return InvalidPayload(gateway, f)
		}
	}
	return nil
}
