// Package ubl integrates UBL card payments. It is the only provider that
// supports refunds.
package ubl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/signing"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/shopspring/decimal"
)

const (
	SandboxBaseURL    = "https://sandbox.ubl.com.pk/api"
	ProductionBaseURL = "https://payments.ubl.com.pk/api"
	sandboxCheckout   = "https://sandbox.ubl.com.pk/checkout"

	statusCreated = "created"
	statusPaid    = "paid"
)

var statuses = gatewayhttp.CodeTable{
	"paid":       {Code: "paid", Description: "Payment captured", Status: domain.GatewayStatusCompleted},
	"captured":   {Code: "captured", Description: "Payment captured", Status: domain.GatewayStatusCompleted},
	"created":    {Code: "created", Description: "Awaiting card entry", Status: domain.GatewayStatusPending},
	"authorized": {Code: "authorized", Description: "Authorized, not captured", Status: domain.GatewayStatusPending},
	"declined":   {Code: "declined", Description: "Card declined", Status: domain.GatewayStatusFailed},
	"cancelled":  {Code: "cancelled", Description: "Cancelled by customer", Status: domain.GatewayStatusFailed},
	"expired":    {Code: "expired", Description: "Checkout session expired", Status: domain.GatewayStatusFailed},
}

// Config holds UBL API credentials
type Config struct {
	MerchantID string
	APIKey     string
	APISecret  string
	BaseURL    string
	Sandbox    bool
}

// ConfigFromGateway reads credentials from a gateway config row
func ConfigFromGateway(gc domain.GatewayConfig) (Config, error) {
	cfg := Config{
		MerchantID: gc.Credential("merchant_id"),
		APIKey:     gc.Credential("api_key"),
		APISecret:  gc.Credential("api_secret"),
		BaseURL:    gc.Credential("base_url"),
		Sandbox:    gc.IsSandbox(),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductionBaseURL
		if cfg.Sandbox {
			cfg.BaseURL = SandboxBaseURL
		}
	}
	if cfg.MerchantID == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return Config{}, fmt.Errorf("ubl requires merchant_id, api_key and api_secret")
	}
	return cfg, nil
}

// WebhookSignature signs merchant_id|order_id|amount|currency|status|transaction_id with api_secret
func WebhookSignature(apiSecret string, payload map[string]string) string {
	parts := []string{
		payload["merchant_id"],
		payload["order_id"],
		payload["amount"],
		payload["currency"],
		payload["status"],
		payload["transaction_id"],
	}
	return signing.HMACSHA256Hex(apiSecret, strings.Join(parts, "|"))
}

// Adapter implements ports.GatewayAdapter and ports.Refunder for UBL
type Adapter struct {
	config Config
	client *gatewayhttp.Client
	logger ports.Logger
}

// New creates a UBL adapter
func New(gc domain.GatewayConfig, deps gatewayhttp.Deps) (*Adapter, error) {
	cfg, err := ConfigFromGateway(gc)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		config: cfg,
		client: gatewayhttp.NewClient(domain.GatewayUBL, deps.HTTPClient, deps.Breaker, deps.Logger),
		logger: deps.Logger,
	}, nil
}

func (a *Adapter) Name() string { return domain.GatewayUBL }

func (a *Adapter) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.config.APIKey}
}

func (a *Adapter) paymentURL(id, action string) string {
	return a.config.BaseURL + "/payments/" + url.PathEscape(id) + "/" + action
}

type createRequest struct {
	MerchantID    string `json:"merchant_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Description   string `json:"description,omitempty"`
	ReturnURL     string `json:"return_url"`
}

type createResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

// Initiate opens a hosted card checkout session
func (a *Adapter) Initiate(ctx context.Context, req ports.InitiateRequest) (*ports.InitiateResult, error) {
	if a.config.Sandbox {
		session := "sandbox_" + req.PaymentID
		return &ports.InitiateResult{
			RedirectURL:  sandboxCheckout + "?session=" + session,
			GatewayToken: session,
			Raw: map[string]interface{}{
				"status":  "success",
				"sandbox": true,
				"token":   session,
			},
		}, nil
	}

	body := createRequest{
		MerchantID:    a.config.MerchantID,
		Amount:        signing.Amount(req.Amount),
		Currency:      domain.CurrencyPKR,
		OrderID:       req.PaymentID,
		CustomerEmail: req.Email,
		Description:   req.Description,
		ReturnURL:     req.CallbackURL,
	}

	var resp createResponse
	if err := a.client.PostJSON(ctx, "initiate", a.config.BaseURL+"/payments/create", a.headers(), body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusCreated || resp.RedirectURL == "" {
		msg := resp.Message
		if msg == "" {
			msg = "Payment session could not be created"
		}
		a.logger.Warn("UBL rejected payment creation",
			ports.String("order_id", req.PaymentID),
			ports.String("status", resp.Status),
		)
		return nil, gatewayhttp.Rejected(domain.GatewayUBL, resp.Status, msg)
	}

	return &ports.InitiateResult{
		RedirectURL:  resp.RedirectURL,
		GatewayToken: resp.PaymentID,
		Raw: map[string]interface{}{
			"status":       resp.Status,
			"payment_id":   resp.PaymentID,
			"redirect_url": resp.RedirectURL,
		},
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

// VerifyStatus reads the session status
func (a *Adapter) VerifyStatus(ctx context.Context, externalPaymentID string) (domain.GatewayStatus, error) {
	if a.config.Sandbox {
		return domain.GatewayStatusCompleted, nil
	}

	var resp statusResponse
	if err := a.client.GetJSON(ctx, "status", a.paymentURL(externalPaymentID, "status"), a.headers(), nil, &resp); err != nil {
		return "", err
	}
	return statuses.Lookup(strings.ToLower(resp.Status)).Status, nil
}

// ProcessWebhook verifies signature and normalizes a UBL notification
func (a *Adapter) ProcessWebhook(ctx context.Context, payload map[string]string) (*ports.WebhookResult, error) {
	if !signing.Equal(WebhookSignature(a.config.APISecret, payload), payload["signature"]) {
		a.logger.Warn("UBL webhook signature mismatch",
			ports.String("order_id", payload["order_id"]),
		)
		return nil, gatewayhttp.InvalidSignature(domain.GatewayUBL)
	}

	if err := gatewayhttp.RequireFields(domain.GatewayUBL, payload, "order_id", "amount", "status"); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(payload["amount"])
	if err != nil {
		return nil, gatewayhttp.InvalidPayload(domain.GatewayUBL, "amount")
	}

	currency := payload["currency"]
	if currency == "" {
		currency = domain.CurrencyPKR
	}

	status := strings.ToLower(payload["status"])
	return &ports.WebhookResult{
		Status:                statuses.Lookup(status).Status,
		ExternalPaymentID:     payload["order_id"],
		Amount:                amount,
		Currency:              currency,
		ProviderTransactionID: payload["transaction_id"],
		ResponseCode:          status,
		Raw:                   gatewayhttp.RawPayload(payload),
	}, nil
}

// CallbackSucceeded checks the redirect's status parameter
func (a *Adapter) CallbackSucceeded(query map[string]string) (bool, string) {
	status := query["status"]
	return status == statusPaid, status
}

type refundRequest struct {
	MerchantID    string `json:"merchant_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount,omitempty"`
}

// Refund returns funds for a captured payment. A zero amount refunds in full.
func (a *Adapter) Refund(ctx context.Context, externalPaymentID string, amount decimal.Decimal) (map[string]interface{}, error) {
	if a.config.Sandbox {
		return map[string]interface{}{
			"status":  "refunded",
			"sandbox": true,
		}, nil
	}

	body := refundRequest{
		MerchantID:    a.config.MerchantID,
		TransactionID: externalPaymentID,
	}
	if amount.IsPositive() {
		body.Amount = signing.Amount(amount)
	}

	var resp map[string]interface{}
	if err := a.client.PostJSON(ctx, "refund", a.paymentURL(externalPaymentID, "refund"), a.headers(), body, &resp); err != nil {
		return nil, err
	}
	if status, _ := resp["status"].(string); status != "" && status != "refunded" && status != "success" {
		msg, _ := resp["message"].(string)
		return nil, gatewayhttp.Rejected(domain.GatewayUBL, status, msg)
	}
	return resp, nil
}
