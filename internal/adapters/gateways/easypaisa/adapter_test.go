package easypaisa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/ncpwheels/featured-payments/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(env domain.Environment, baseURL string) domain.GatewayConfig {
	return domain.GatewayConfig{
		GatewayName: domain.GatewayEasyPaisa,
		IsActive:    true,
		Environment: env,
		Credentials: map[string]string{
			"merchant_id":  "123456",
			"merchant_key": "test-merchant-key",
			"store_id":     "12345",
			"base_url":     baseURL,
		},
	}
}

func newAdapter(t *testing.T, env domain.Environment, baseURL string, client ports.HTTPClient) *Adapter {
	t.Helper()
	a, err := New(testConfig(env, baseURL), gatewayhttp.Deps{
		HTTPClient: client,
		Logger:     mocks.NewMockLogger(),
	})
	require.NoError(t, err)
	return a
}

func TestNew_MissingCredentials(t *testing.T) {
	cfg := testConfig(domain.EnvironmentSandbox, "")
	delete(cfg.Credentials, "store_id")

	_, err := New(cfg, gatewayhttp.Deps{Logger: mocks.NewMockLogger()})
	assert.Error(t, err)
}

func TestAdapter_Initiate_SandboxIsDeterministicAndOffline(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	a := newAdapter(t, domain.EnvironmentSandbox, "", httpClient)

	req := ports.InitiateRequest{
		Amount:      decimal.NewFromInt(1000),
		PaymentID:   "FL-1a2b3c4d",
		CallbackURL: "https://ncpwheels.pk/featured-listing/verify/abc",
	}

	first, err := a.Initiate(context.Background(), req)
	require.NoError(t, err)
	second, err := a.Initiate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "https://sandbox.easypay.easypaisa.com.pk/payment?token=sandbox_FL-1a2b3c4d", first.RedirectURL)
	assert.Equal(t, "sandbox_FL-1a2b3c4d", first.GatewayToken)
	assert.Equal(t, first.RedirectURL, second.RedirectURL)
	assert.Equal(t, 0, httpClient.CallCount())
}

func TestAdapter_Initiate_ProductionSignsRequest(t *testing.T) {
	var received initRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant-payment-init", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{
			"responseCode": "0000",
			"paymentToken": "tok-live-1",
		})
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())

	res, err := a.Initiate(context.Background(), ports.InitiateRequest{
		Amount:       decimal.RequireFromString("2500.50"),
		PaymentID:    "FL-00000001",
		CallbackURL:  "https://example.test/cb",
		MobileNumber: "03001234567",
	})
	require.NoError(t, err)

	assert.Equal(t, "250050", received.TransactionAmount)
	assert.Equal(t, "03001234567", received.MobileAccountNo)
	assert.Equal(t, initHash(a.config, "FL-00000001", "250050"), received.HashKey)
	assert.Equal(t, "https://easypay.easypaisa.com.pk/payment?token=tok-live-1", res.RedirectURL)
	assert.Equal(t, "tok-live-1", res.GatewayToken)
}

func TestAdapter_Initiate_RejectedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"responseCode": "0001",
			"responseDesc": "Invalid merchant",
		})
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())

	_, err := a.Initiate(context.Background(), ports.InitiateRequest{
		Amount:    decimal.NewFromInt(1000),
		PaymentID: "FL-00000002",
	})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayRejected))
	assert.Contains(t, domain.UserMessage(err), "Invalid merchant")
}

func TestAdapter_Initiate_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, url, http.DefaultClient)

	_, err := a.Initiate(context.Background(), ports.InitiateRequest{
		Amount:    decimal.NewFromInt(1000),
		PaymentID: "FL-00000003",
	})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayUnavailable))
}

func TestAdapter_VerifyStatus(t *testing.T) {
	t.Run("sandbox always completed", func(t *testing.T) {
		httpClient := mocks.NewMockHTTPClient(nil)
		a := newAdapter(t, domain.EnvironmentSandbox, "", httpClient)

		status, err := a.VerifyStatus(context.Background(), "FL-1")
		require.NoError(t, err)
		assert.Equal(t, domain.GatewayStatusCompleted, status)
		assert.Equal(t, 0, httpClient.CallCount())
	})

	tests := []struct {
		code string
		want domain.GatewayStatus
	}{
		{"0000", domain.GatewayStatusCompleted},
		{"0001", domain.GatewayStatusFailed},
		{"0002", domain.GatewayStatusPending},
		{"0003", domain.GatewayStatusFailed},
		{"9999", domain.GatewayStatusFailed},
	}
	for _, tt := range tests {
		t.Run("code "+tt.code, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body statusRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "FL-42", body.OrderID)
				json.NewEncoder(w).Encode(map[string]string{"responseCode": tt.code})
			}))
			defer server.Close()

			a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
			status, err := a.VerifyStatus(context.Background(), "FL-42")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func signedPayload(cfg Config, code string) map[string]string {
	return map[string]string{
		"merchantId":        cfg.MerchantID,
		"storeId":           cfg.StoreID,
		"orderId":           "FL-abcdef12",
		"transactionAmount": "100000",
		"responseCode":      code,
		"transactionId":     "EP-777",
		"hashKey":           WebhookHash(cfg, "FL-abcdef12", "100000"),
	}
}

func TestAdapter_ProcessWebhook_Valid(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	res, err := a.ProcessWebhook(context.Background(), signedPayload(a.config, "0000"))
	require.NoError(t, err)

	assert.Equal(t, domain.GatewayStatusCompleted, res.Status)
	assert.Equal(t, "FL-abcdef12", res.ExternalPaymentID)
	assert.True(t, decimal.NewFromInt(1000).Equal(res.Amount))
	assert.Equal(t, "PKR", res.Currency)
	assert.Equal(t, "EP-777", res.ProviderTransactionID)
	assert.Equal(t, "100000", res.Raw["transactionAmount"])
}

func TestAdapter_ProcessWebhook_TamperedSignature(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	payload := signedPayload(a.config, "0000")
	sig := []byte(payload["hashKey"])
	if sig[0] == 'f' {
		sig[0] = 'e'
	} else {
		sig[0] = 'f'
	}
	payload["hashKey"] = string(sig)

	res, err := a.ProcessWebhook(context.Background(), payload)
	assert.Nil(t, res)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidSignature))
}

func TestAdapter_ProcessWebhook_TamperedAmount(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	payload := signedPayload(a.config, "0000")
	payload["transactionAmount"] = "1000"

	_, err := a.ProcessWebhook(context.Background(), payload)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidSignature))
}

func TestAdapter_ProcessWebhook_MissingSignature(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	payload := signedPayload(a.config, "0000")
	delete(payload, "hashKey")

	_, err := a.ProcessWebhook(context.Background(), payload)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidSignature))
}

func TestAdapter_ProcessWebhook_UnmappedCodeFailsClosed(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	res, err := a.ProcessWebhook(context.Background(), signedPayload(a.config, "7777"))
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusFailed, res.Status)
}

func TestAdapter_CallbackSucceeded(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	ok, code := a.CallbackSucceeded(map[string]string{"status": "0000"})
	assert.True(t, ok)
	assert.Equal(t, "0000", code)

	ok, _ = a.CallbackSucceeded(map[string]string{"status": "0001"})
	assert.False(t, ok)

	ok, _ = a.CallbackSucceeded(map[string]string{})
	assert.False(t, ok)
}
