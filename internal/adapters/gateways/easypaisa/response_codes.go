package easypaisa

import (
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/domain"
)

const codeSuccess = "0000"

var responseCodes = gatewayhttp.CodeTable{
	"0000": {Code: "0000", Description: "Success", Status: domain.GatewayStatusCompleted},
	"0001": {Code: "0001", Description: "Failed", Status: domain.GatewayStatusFailed},
	"0002": {Code: "0002", Description: "Pending", Status: domain.GatewayStatusPending},
	"0003": {Code: "0003", Description: "Cancelled", Status: domain.GatewayStatusFailed},
}
