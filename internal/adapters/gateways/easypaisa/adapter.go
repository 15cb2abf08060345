package easypaisa

import (
	"context"
	"fmt"
	"time"

	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/signing"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL     = "https://easypay.easypaisa.com.pk/easypay-service/rest/v4"
	checkoutURL        = "https://easypay.easypaisa.com.pk/payment"
	sandboxCheckoutURL = "https://sandbox.easypay.easypaisa.com.pk/payment"
	transactionType    = "MA_WEB_CHECKOUT"
	tokenLifetime      = 24 * time.Hour
)

// Config holds EasyPaisa merchant credentials
type Config struct {
	MerchantID  string
	MerchantKey string
	StoreID     string
	BaseURL     string
	Sandbox     bool
}

// ConfigFromGateway reads credentials from a gateway config row
func ConfigFromGateway(gc domain.GatewayConfig) (Config, error) {
	cfg := Config{
		MerchantID:  gc.Credential("merchant_id"),
		MerchantKey: gc.Credential("merchant_key"),
		StoreID:     gc.Credential("store_id"),
		BaseURL:     gc.Credential("base_url"),
		Sandbox:     gc.IsSandbox(),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MerchantID == "" || cfg.MerchantKey == "" || cfg.StoreID == "" {
		return Config{}, fmt.Errorf("easypaisa requires merchant_id, merchant_key and store_id")
	}
	return cfg, nil
}

// Adapter implements ports.GatewayAdapter for EasyPaisa mobile account checkout
type Adapter struct {
	config Config
	client *gatewayhttp.Client
	logger ports.Logger
	now    func() time.Time
}

// New creates an EasyPaisa adapter
func New(gc domain.GatewayConfig, deps gatewayhttp.Deps) (*Adapter, error) {
	cfg, err := ConfigFromGateway(gc)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		config: cfg,
		client: gatewayhttp.NewClient(domain.GatewayEasyPaisa, deps.HTTPClient, deps.Breaker, deps.Logger),
		logger: deps.Logger,
		now:    time.Now,
	}, nil
}

func (a *Adapter) Name() string { return domain.GatewayEasyPaisa }

type initRequest struct {
	MerchantID               string `json:"merchantId"`
	StoreID                  string `json:"storeId"`
	OrderID                  string `json:"orderId"`
	TransactionAmount        string `json:"transactionAmount"`
	MobileAccountNo          string `json:"mobileAccountNo"`
	EmailAddress             string `json:"emailAddress"`
	TransactionType          string `json:"transactionType"`
	TokenExpiry              string `json:"tokenExpiry"`
	BankIdentificationNumber string `json:"bankIdentificationNumber"`
	MerchantPaymentMethod    string `json:"merchantPaymentMethod"`
	TransactionDateTime      string `json:"transactionDateTime"`
	PostBackURL              string `json:"postBackURL"`
	Description              string `json:"description"`
	HashKey                  string `json:"hashKey"`
}

type initResponse struct {
	ResponseCode string `json:"responseCode"`
	ResponseDesc string `json:"responseDesc"`
	PaymentToken string `json:"paymentToken"`
	OrderID      string `json:"orderId"`
}

// Initiate requests a payment token and returns the hosted checkout URL
func (a *Adapter) Initiate(ctx context.Context, req ports.InitiateRequest) (*ports.InitiateResult, error) {
	if a.config.Sandbox {
		token := "sandbox_" + req.PaymentID
		return &ports.InitiateResult{
			RedirectURL:  sandboxCheckoutURL + "?token=" + token,
			GatewayToken: token,
			Raw: map[string]interface{}{
				"status":  "success",
				"sandbox": true,
				"token":   token,
			},
		}, nil
	}

	amount := signing.AmountMinor(req.Amount)
	now := a.now()
	description := req.Description
	if description == "" {
		description = "Featured Listing Payment"
	}

	body := initRequest{
		MerchantID:               a.config.MerchantID,
		StoreID:                  a.config.StoreID,
		OrderID:                  req.PaymentID,
		TransactionAmount:        amount,
		MobileAccountNo:          req.MobileNumber,
		EmailAddress:             req.Email,
		TransactionType:          transactionType,
		TokenExpiry:              now.Add(tokenLifetime).Format("20060102150405"),
		BankIdentificationNumber: "0",
		TransactionDateTime:      now.Format("20060102150405"),
		PostBackURL:              req.CallbackURL,
		Description:              description,
		HashKey:                  initHash(a.config, req.PaymentID, amount),
	}

	var resp initResponse
	if err := a.client.PostJSON(ctx, "initiate", a.config.BaseURL+"/merchant-payment-init", nil, body, &resp); err != nil {
		return nil, err
	}

	if resp.ResponseCode != codeSuccess {
		msg := resp.ResponseDesc
		if msg == "" {
			msg = "Payment initialization failed"
		}
		a.logger.Warn("EasyPaisa rejected payment initialization",
			ports.String("order_id", req.PaymentID),
			ports.String("response_code", resp.ResponseCode),
		)
		return nil, gatewayhttp.Rejected(domain.GatewayEasyPaisa, resp.ResponseCode, msg)
	}

	return &ports.InitiateResult{
		RedirectURL:  checkoutURL + "?token=" + resp.PaymentToken,
		GatewayToken: resp.PaymentToken,
		Raw: map[string]interface{}{
			"responseCode": resp.ResponseCode,
			"responseDesc": resp.ResponseDesc,
			"paymentToken": resp.PaymentToken,
		},
	}, nil
}

type statusRequest struct {
	MerchantID string `json:"merchantId"`
	StoreID    string `json:"storeId"`
	OrderID    string `json:"orderId"`
	HashKey    string `json:"hashKey"`
}

type statusResponse struct {
	ResponseCode      string `json:"responseCode"`
	ResponseDesc      string `json:"responseDesc"`
	TransactionStatus string `json:"transactionStatus"`
}

// VerifyStatus polls merchant-payment-status for the order
func (a *Adapter) VerifyStatus(ctx context.Context, externalPaymentID string) (domain.GatewayStatus, error) {
	if a.config.Sandbox {
		return domain.GatewayStatusCompleted, nil
	}

	body := statusRequest{
		MerchantID: a.config.MerchantID,
		StoreID:    a.config.StoreID,
		OrderID:    externalPaymentID,
		HashKey:    statusHash(a.config, externalPaymentID),
	}

	var resp statusResponse
	if err := a.client.PostJSON(ctx, "status", a.config.BaseURL+"/merchant-payment-status", nil, body, &resp); err != nil {
		return "", err
	}
	return responseCodes.Lookup(resp.ResponseCode).Status, nil
}

// ProcessWebhook verifies hashKey and normalizes an EasyPaisa notification.
// transactionAmount is posted in minor units.
func (a *Adapter) ProcessWebhook(ctx context.Context, payload map[string]string) (*ports.WebhookResult, error) {
	received := payload["hashKey"]
	expected := WebhookHash(a.config, payload["orderId"], payload["transactionAmount"])
	if !signing.Equal(expected, received) {
		a.logger.Warn("EasyPaisa webhook signature mismatch",
			ports.String("order_id", payload["orderId"]),
		)
		return nil, gatewayhttp.InvalidSignature(domain.GatewayEasyPaisa)
	}

	if err := gatewayhttp.RequireFields(domain.GatewayEasyPaisa, payload, "orderId", "transactionAmount", "responseCode"); err != nil {
		return nil, err
	}

	minor, err := decimal.NewFromString(payload["transactionAmount"])
	if err != nil {
		return nil, gatewayhttp.InvalidPayload(domain.GatewayEasyPaisa, "transactionAmount")
	}

	code := payload["responseCode"]
	return &ports.WebhookResult{
		Status:                responseCodes.Lookup(code).Status,
		ExternalPaymentID:     payload["orderId"],
		Amount:                minor.Shift(-2),
		Currency:              domain.CurrencyPKR,
		ProviderTransactionID: payload["transactionId"],
		ResponseCode:          code,
		Raw:                   gatewayhttp.RawPayload(payload),
	}, nil
}

// CallbackSucceeded checks the redirect's status parameter
func (a *Adapter) CallbackSucceeded(query map[string]string) (bool, string) {
	code := query["status"]
	return code == codeSuccess, code
}
