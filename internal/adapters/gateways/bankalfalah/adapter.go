package bankalfalah

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/signing"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/shopspring/decimal"
)

const (
	SandboxURL    = "https://sandbox.bankalfalah.com/HS/api/Transaction/Post"
	ProductionURL = "https://payments.bankalfalah.com/HS/api/Transaction/Post"
	sandboxSSOURL = "https://sandbox.bankalfalah.com/SSO/SSO/SSO"

	codeSuccess          = "00"
	transactionTypeWeb   = "3"
	merchantCategoryCode = "5399"
	defaultMerchantName  = "NCP Wheels"
)

// Config holds Bank Alfalah merchant credentials
type Config struct {
	MerchantID   string
	MerchantKey  string
	MerchantName string
	TerminalID   string
	URL          string
	Sandbox      bool
}

// ConfigFromGateway reads credentials from a gateway config row
func ConfigFromGateway(gc domain.GatewayConfig) (Config, error) {
	cfg := Config{
		MerchantID:   gc.Credential("merchant_id"),
		MerchantKey:  gc.Credential("merchant_key"),
		MerchantName: gc.Credential("merchant_name"),
		TerminalID:   gc.Credential("terminal_id"),
		URL:          gc.Credential("base_url"),
		Sandbox:      gc.IsSandbox(),
	}
	if cfg.MerchantName == "" {
		cfg.MerchantName = defaultMerchantName
	}
	if cfg.URL == "" {
		cfg.URL = ProductionURL
		if cfg.Sandbox {
			cfg.URL = SandboxURL
		}
	}
	if cfg.MerchantID == "" || cfg.MerchantKey == "" {
		return Config{}, fmt.Errorf("bankalfalah requires merchant_id and merchant_key")
	}
	return cfg, nil
}

// Signature is the upper-case hex HMAC over merchantId+orderNumber+amount+currency+merchantKey
func Signature(cfg Config, orderNumber, amount, currency string) string {
	return strings.ToUpper(signing.HMACSHA256Hex(cfg.MerchantKey,
		cfg.MerchantID+orderNumber+amount+currency+cfg.MerchantKey))
}

var responseCodes = gatewayhttp.CodeTable{
	"00": {Code: "00", Description: "Success", Status: domain.GatewayStatusCompleted},
	"01": {Code: "01", Description: "Failed", Status: domain.GatewayStatusFailed},
	"02": {Code: "02", Description: "Pending", Status: domain.GatewayStatusPending},
}

// Adapter implements ports.GatewayAdapter for Bank Alfalah hosted checkout
type Adapter struct {
	config Config
	client *gatewayhttp.Client
	logger ports.Logger
	now    func() time.Time
}

// New creates a Bank Alfalah adapter
func New(gc domain.GatewayConfig, deps gatewayhttp.Deps) (*Adapter, error) {
	cfg, err := ConfigFromGateway(gc)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		config: cfg,
		client: gatewayhttp.NewClient(domain.GatewayBankAlfalah, deps.HTTPClient, deps.Breaker, deps.Logger),
		logger: deps.Logger,
		now:    time.Now,
	}, nil
}

func (a *Adapter) Name() string { return domain.GatewayBankAlfalah }

type transactionRequest struct {
	TransactionTypeID          string `json:"TransactionTypeId"`
	TransactionReferenceNumber string `json:"TransactionReferenceNumber"`
	MerchantID                 string `json:"MerchantId"`
	MerchantName               string `json:"MerchantName"`
	MerchantCategoryCode       string `json:"MerchantCategoryCode"`
	TransactionCurrency        string `json:"TransactionCurrency"`
	TransactionAmount          string `json:"TransactionAmount"`
	OrderNumber                string `json:"OrderNumber"`
	OrderDateTime              string `json:"OrderDateTime"`
	TransactionExpiryDateTime  string `json:"TransactionExpiryDateTime"`
	ReturnURL                  string `json:"ReturnURL"`
	Description                string `json:"Description"`
	TerminalID                 string `json:"TerminalId,omitempty"`
	EmailAddress               string `json:"EmailAddress,omitempty"`
	MobileNumber               string `json:"MobileNumber,omitempty"`
	Language                   string `json:"Language"`
	Version                    string `json:"Version"`
	Signature                  string `json:"Signature"`
}

type transactionResponse struct {
	ResponseCode               string `json:"ResponseCode"`
	ResponseMessage            string `json:"ResponseMessage"`
	RedirectURL                string `json:"RedirectURL"`
	TransactionReferenceNumber string `json:"TransactionReferenceNumber"`
}

// Initiate posts a signed web checkout transaction
func (a *Adapter) Initiate(ctx context.Context, req ports.InitiateRequest) (*ports.InitiateResult, error) {
	if a.config.Sandbox {
		token := "sandbox_" + req.PaymentID
		return &ports.InitiateResult{
			RedirectURL:  sandboxSSOURL + "?ID=" + token,
			GatewayToken: token,
			Raw: map[string]interface{}{
				"status":  "success",
				"sandbox": true,
				"token":   token,
			},
		}, nil
	}

	now := a.now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	amount := signing.Amount(req.Amount)
	description := req.Description
	if description == "" {
		description = "Featured Listing Payment"
	}

	body := transactionRequest{
		TransactionTypeID:          transactionTypeWeb,
		TransactionReferenceNumber: req.PaymentID,
		MerchantID:                 a.config.MerchantID,
		MerchantName:               a.config.MerchantName,
		MerchantCategoryCode:       merchantCategoryCode,
		TransactionCurrency:        domain.CurrencyPKR,
		TransactionAmount:          amount,
		OrderNumber:                req.PaymentID,
		OrderDateTime:              now.Format("20060102150405"),
		TransactionExpiryDateTime:  endOfDay.Format("20060102150405"),
		ReturnURL:                  req.CallbackURL,
		Description:                description,
		TerminalID:                 a.config.TerminalID,
		EmailAddress:               req.Email,
		MobileNumber:               req.MobileNumber,
		Language:                   "EN",
		Version:                    "1.1",
		Signature:                  Signature(a.config, req.PaymentID, amount, domain.CurrencyPKR),
	}

	var resp transactionResponse
	if err := a.client.PostJSON(ctx, "initiate", a.config.URL, nil, body, &resp); err != nil {
		return nil, err
	}

	if resp.ResponseCode != codeSuccess {
		msg := resp.ResponseMessage
		if msg == "" {
			msg = "Payment initialization failed"
		}
		a.logger.Warn("Bank Alfalah rejected payment initialization",
			ports.String("order_number", req.PaymentID),
			ports.String("response_code", resp.ResponseCode),
		)
		return nil, gatewayhttp.Rejected(domain.GatewayBankAlfalah, resp.ResponseCode, msg)
	}

	return &ports.InitiateResult{
		RedirectURL:  resp.RedirectURL,
		GatewayToken: resp.TransactionReferenceNumber,
		Raw: map[string]interface{}{
			"ResponseCode":               resp.ResponseCode,
			"ResponseMessage":            resp.ResponseMessage,
			"RedirectURL":                resp.RedirectURL,
			"TransactionReferenceNumber": resp.TransactionReferenceNumber,
		},
	}, nil
}

// VerifyStatus has no provider API behind it. Live payments stay pending until
// the return redirect or the IPN arrives.
func (a *Adapter) VerifyStatus(ctx context.Context, externalPaymentID string) (domain.GatewayStatus, error) {
	if a.config.Sandbox {
		return domain.GatewayStatusCompleted, nil
	}
	return domain.GatewayStatusPending, nil
}

// ProcessWebhook verifies Signature and normalizes a Bank Alfalah IPN
func (a *Adapter) ProcessWebhook(ctx context.Context, payload map[string]string) (*ports.WebhookResult, error) {
	expected := Signature(a.config, payload["OrderNumber"], payload["TransactionAmount"], payload["TransactionCurrency"])
	if !signing.Equal(expected, payload["Signature"]) {
		a.logger.Warn("Bank Alfalah webhook signature mismatch",
			ports.String("order_number", payload["OrderNumber"]),
		)
		return nil, gatewayhttp.InvalidSignature(domain.GatewayBankAlfalah)
	}

	if err := gatewayhttp.RequireFields(domain.GatewayBankAlfalah, payload,
		"OrderNumber", "TransactionAmount", "TransactionCurrency", "ResponseCode"); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(payload["TransactionAmount"])
	if err != nil {
		return nil, gatewayhttp.InvalidPayload(domain.GatewayBankAlfalah, "TransactionAmount")
	}

	code := payload["ResponseCode"]
	return &ports.WebhookResult{
		Status:                responseCodes.Lookup(code).Status,
		ExternalPaymentID:     payload["OrderNumber"],
		Amount:                amount,
		Currency:              payload["TransactionCurrency"],
		ProviderTransactionID: payload["AuthCode"],
		ResponseCode:          code,
		Raw:                   gatewayhttp.RawPayload(payload),
	}, nil
}

// CallbackSucceeded checks the redirect's ResponseCode parameter
func (a *Adapter) CallbackSucceeded(query map[string]string) (bool, string) {
	code := query["ResponseCode"]
	return code == codeSuccess, code
}
