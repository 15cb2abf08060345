package jazzcash

import (
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/domain"
)

const codeSuccess = "000"

var responseCodes = gatewayhttp.CodeTable{
	"000": {Code: "000", Description: "Transaction successful", Status: domain.GatewayStatusCompleted},
	"121": {Code: "121", Description: "Awaiting customer confirmation", Status: domain.GatewayStatusPending},
	"124": {Code: "124", Description: "Order placed, awaiting payment", Status: domain.GatewayStatusPending},
	"157": {Code: "157", Description: "Transaction pending", Status: domain.GatewayStatusPending},
	"199": {Code: "199", Description: "Transaction declined", Status: domain.GatewayStatusFailed},
	"999": {Code: "999", Description: "System error", Status: domain.GatewayStatusFailed},
}
