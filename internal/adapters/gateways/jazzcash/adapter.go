package jazzcash

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/signing"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/shopspring/decimal"
)

const (
	SandboxBaseURL    = "https://sandbox.jazzcash.com.pk/api"
	ProductionBaseURL = "https://payments.jazzcash.com.pk/api"
	sandboxCheckout   = "https://sandbox.jazzcash.com.pk/checkout"

	fieldSecureHash = "secure_hash"
)

// Config holds JazzCash merchant credentials
type Config struct {
	MerchantID    string
	Password      string
	IntegritySalt string
	BaseURL       string
	Sandbox       bool
}

// ConfigFromGateway reads credentials from a gateway config row
func ConfigFromGateway(gc domain.GatewayConfig) (Config, error) {
	cfg := Config{
		MerchantID:    gc.Credential("merchant_id"),
		Password:      gc.Credential("password"),
		IntegritySalt: gc.Credential("integrity_salt"),
		BaseURL:       gc.Credential("base_url"),
		Sandbox:       gc.IsSandbox(),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductionBaseURL
		if cfg.Sandbox {
			cfg.BaseURL = SandboxBaseURL
		}
	}
	if cfg.MerchantID == "" || cfg.IntegritySalt == "" {
		return Config{}, fmt.Errorf("jazzcash requires merchant_id and integrity_salt")
	}
	return cfg, nil
}

// Adapter implements ports.GatewayAdapter for JazzCash mobile wallet payments
type Adapter struct {
	config Config
	client *gatewayhttp.Client
	logger ports.Logger
}

// New creates a JazzCash adapter
func New(gc domain.GatewayConfig, deps gatewayhttp.Deps) (*Adapter, error) {
	cfg, err := ConfigFromGateway(gc)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		config: cfg,
		client: gatewayhttp.NewClient(domain.GatewayJazzCash, deps.HTTPClient, deps.Breaker, deps.Logger),
		logger: deps.Logger,
	}, nil
}

func (a *Adapter) Name() string { return domain.GatewayJazzCash }

type createResponse struct {
	ResponseCode    string `json:"response_code"`
	ResponseMessage string `json:"response_message"`
	RedirectURL     string `json:"redirect_url"`
	TxnRefNo        string `json:"txn_ref_no"`
}

// Initiate creates a payment and returns the JazzCash checkout URL
func (a *Adapter) Initiate(ctx context.Context, req ports.InitiateRequest) (*ports.InitiateResult, error) {
	if a.config.Sandbox {
		token := "sandbox_" + req.PaymentID
		return &ports.InitiateResult{
			RedirectURL:  sandboxCheckout + "?token=" + token,
			GatewayToken: token,
			Raw: map[string]interface{}{
				"status":  "success",
				"sandbox": true,
				"token":   token,
			},
		}, nil
	}

	description := req.Description
	if description == "" {
		description = "Payment for featured listing"
	}
	fields := map[string]string{
		"merchant_id":   a.config.MerchantID,
		"amount":        signing.Amount(req.Amount),
		"currency":      domain.CurrencyPKR,
		"txn_ref_no":    req.PaymentID,
		"mobile_number": req.MobileNumber,
		"description":   description,
		"return_url":    req.CallbackURL,
	}
	fields[fieldSecureHash] = SecureHash(a.config.IntegritySalt, fields)

	var resp createResponse
	if err := a.client.PostJSON(ctx, "initiate", a.config.BaseURL+"/payments/create", nil, fields, &resp); err != nil {
		return nil, err
	}

	if resp.ResponseCode != codeSuccess || resp.RedirectURL == "" {
		msg := resp.ResponseMessage
		if msg == "" {
			msg = responseCodes.Lookup(resp.ResponseCode).Description
		}
		a.logger.Warn("JazzCash rejected payment creation",
			ports.String("txn_ref_no", req.PaymentID),
			ports.String("response_code", resp.ResponseCode),
		)
		return nil, gatewayhttp.Rejected(domain.GatewayJazzCash, resp.ResponseCode, msg)
	}

	return &ports.InitiateResult{
		RedirectURL:  resp.RedirectURL,
		GatewayToken: resp.TxnRefNo,
		Raw: map[string]interface{}{
			"response_code":    resp.ResponseCode,
			"response_message": resp.ResponseMessage,
			"redirect_url":     resp.RedirectURL,
			"txn_ref_no":       resp.TxnRefNo,
		},
	}, nil
}

type statusResponse struct {
	ResponseCode string `json:"response_code"`
}

// VerifyStatus queries the payment status endpoint
func (a *Adapter) VerifyStatus(ctx context.Context, externalPaymentID string) (domain.GatewayStatus, error) {
	if a.config.Sandbox {
		return domain.GatewayStatusCompleted, nil
	}

	fields := map[string]string{
		"merchant_id": a.config.MerchantID,
		"txn_ref_no":  externalPaymentID,
	}
	query := url.Values{}
	for k, v := range fields {
		query.Set(k, v)
	}
	query.Set(fieldSecureHash, SecureHash(a.config.IntegritySalt, fields))

	endpoint := a.config.BaseURL + "/payments/" + url.PathEscape(externalPaymentID) + "/status"
	var resp statusResponse
	if err := a.client.GetJSON(ctx, "status", endpoint, nil, query, &resp); err != nil {
		return "", err
	}
	return responseCodes.Lookup(resp.ResponseCode).Status, nil
}

// ProcessWebhook checks secure_hash over every other posted field
func (a *Adapter) ProcessWebhook(ctx context.Context, payload map[string]string) (*ports.WebhookResult, error) {
	received := payload[fieldSecureHash]
	signed := make(map[string]string, len(payload))
	for k, v := range payload {
		if k != fieldSecureHash {
			signed[k] = v
		}
	}
	if !signing.Equal(SecureHash(a.config.IntegritySalt, signed), received) {
		a.logger.Warn("JazzCash webhook signature mismatch",
			ports.String("txn_ref_no", payload["txn_ref_no"]),
		)
		return nil, gatewayhttp.InvalidSignature(domain.GatewayJazzCash)
	}

	if err := gatewayhttp.RequireFields(domain.GatewayJazzCash, payload, "txn_ref_no", "amount", "response_code"); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(payload["amount"])
	if err != nil {
		return nil, gatewayhttp.InvalidPayload(domain.GatewayJazzCash, "amount")
	}

	currency := payload["currency"]
	if currency == "" {
		currency = domain.CurrencyPKR
	}

	code := payload["response_code"]
	return &ports.WebhookResult{
		Status:                responseCodes.Lookup(code).Status,
		ExternalPaymentID:     payload["txn_ref_no"],
		Amount:                amount,
		Currency:              currency,
		ProviderTransactionID: payload["transaction_id"],
		ResponseCode:          code,
		Raw:                   gatewayhttp.RawPayload(payload),
	}, nil
}

// CallbackSucceeded checks the redirect's response_code parameter
func (a *Adapter) CallbackSucceeded(query map[string]string) (bool, string) {
	code := query["response_code"]
	return code == codeSuccess, code
}
