package ports

import (
	"context"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/shopspring/decimal"
)

// InitiateRequest is what the orchestration layer hands a gateway to start a payment
type InitiateRequest struct {
	Amount       decimal.Decimal
	PaymentID    string // external order reference (FL-xxxxxxxx)
	CallbackURL  string
	Description  string
	MobileNumber string
	Email        string
}

// InitiateResult carries where the buyer must be sent to pay
type InitiateResult struct {
	Raw          map[string]interface{}
	RedirectURL  string
	GatewayToken string
}

// WebhookResult is a verified, normalized webhook notification
type WebhookResult struct {
	Raw                   map[string]interface{}
	Status                domain.GatewayStatus
	ExternalPaymentID     string
	Currency              string
	ProviderTransactionID string
	ResponseCode          string
	Amount                decimal.Decimal
}

// GatewayAdapter is implemented once per payment provider
type GatewayAdapter interface {
	// Name returns the provider key (easypaisa, bankalfalah, jazzcash, ubl)
	Name() string

	// Initiate builds and sends a signed payment request. Sandbox adapters
	// return a deterministic result without any network call.
	// Errors: GatewayUnavailable on transport failure, GatewayRejected on a
	// non-success provider code.
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)

	// VerifyStatus polls the provider for the outcome of externalPaymentID
	VerifyStatus(ctx context.Context, externalPaymentID string) (domain.GatewayStatus, error)

	// ProcessWebhook verifies the payload signature and normalizes the outcome.
	// A signature mismatch returns InvalidSignature before anything else is read.
	ProcessWebhook(ctx context.Context, payload map[string]string) (*WebhookResult, error)

	// CallbackSucceeded inspects the browser redirect query for the provider's
	// success marker and returns the code it found
	CallbackSucceeded(query map[string]string) (bool, string)
}

// Refunder is implemented by gateways that expose a refund API
type Refunder interface {
	Refund(ctx context.Context, externalPaymentID string, amount decimal.Decimal) (map[string]interface{}, error)
}
