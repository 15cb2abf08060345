package ubl

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

func newAdapter(t *testing.T, env domain.Environment, baseURL string, client ports.HTTPClient) *Adapter {
	t.Helper()
	a, err := New(domain.GatewayConfig{
		GatewayName: domain.GatewayUBL,
		IsActive:    true,
		Environment: env,
		Credentials: map[string]string{
			"merchant_id": "UBL-M1",
			"api_key":     "key-abc",
			"api_secret":  "secret-xyz",
			"base_url":    baseURL,
		},
	}, gatewayhttp.Deps{HTTPClient: client, Logger: mocks.NewMockLogger()})
	require.NoError(t, err)
	return a
}

func TestAdapter_ImplementsRefunder(t *testing.T) {
	var _ ports.Refunder = (*Adapter)(nil)
	var _ ports.GatewayAdapter = (*Adapter)(nil)
}

func TestAdapter_Initiate_Sandbox(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	a := newAdapter(t, domain.EnvironmentSandbox, "", httpClient)

	res, err := a.Initiate(context.Background(), ports.InitiateRequest{
		Amount:    decimal.NewFromInt(2500),
		PaymentID: "FL-0badf00d",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.ubl.com.pk/checkout?session=sandbox_FL-0badf00d", res.RedirectURL)
	assert.Equal(t, 0, httpClient.CallCount())
}

func TestAdapter_Initiate_Production(t *testing.T) {
	var received createRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-abc", r.Header.Get("Authorization"))
		assert.Equal(t, "/payments/create", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{
			"status":       "created",
			"payment_id":   "ubl-pay-1",
			"redirect_url": "https://payments.ubl.com.pk/checkout?session=s1",
		})
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
	res, err := a.Initiate(context.Background(), ports.InitiateRequest{
		Amount:      decimal.NewFromInt(2500),
		PaymentID:   "FL-00000020",
		CallbackURL: "https://example.test/cb",
		Email:       "seller@example.test",
	})
	require.NoError(t, err)

	assert.Equal(t, "2500.00", received.Amount)
	assert.Equal(t, "FL-00000020", received.OrderID)
	assert.Equal(t, "seller@example.test", received.CustomerEmail)
	assert.Equal(t, "ubl-pay-1", res.GatewayToken)
	assert.Equal(t, "https://payments.ubl.com.pk/checkout?session=s1", res.RedirectURL)
}

func TestAdapter_Initiate_ClientErrorIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
	_, err := a.Initiate(context.Background(), ports.InitiateRequest{Amount: decimal.NewFromInt(1), PaymentID: "FL-1"})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayRejected))
}

func TestAdapter_VerifyStatus(t *testing.T) {
	tests := []struct {
		status string
		want   domain.GatewayStatus
	}{
		{"paid", domain.GatewayStatusCompleted},
		{"CAPTURED", domain.GatewayStatusCompleted},
		{"authorized", domain.GatewayStatusPending},
		{"declined", domain.GatewayStatusFailed},
		{"expired", domain.GatewayStatusFailed},
		{"mystery", domain.GatewayStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/payments/FL-9/status", r.URL.Path)
				json.NewEncoder(w).Encode(map[string]string{"status": tt.status})
			}))
			defer server.Close()

			a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
			status, err := a.VerifyStatus(context.Background(), "FL-9")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func signed(status string) map[string]string {
	payload := map[string]string{
		"merchant_id":    "UBL-M1",
		"order_id":       "FL-00000020",
		"amount":         "2500.00",
		"currency":       "PKR",
		"status":         status,
		"transaction_id": "T-99",
		"card_type":      "visa",
		"last_4":         "4242",
	}
	payload["signature"] = WebhookSignature("secret-xyz", payload)
	return payload
}

func TestAdapter_ProcessWebhook(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	res, err := a.ProcessWebhook(context.Background(), signed("paid"))
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusCompleted, res.Status)
	assert.Equal(t, "FL-00000020", res.ExternalPaymentID)
	assert.Equal(t, "T-99", res.ProviderTransactionID)
	assert.Equal(t, "4242", res.Raw["last_4"])
	assert.True(t, decimal.NewFromInt(2500).Equal(res.Amount))
}

func TestAdapter_ProcessWebhook_TamperedStatus(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	payload := signed("declined")
	payload["status"] = "paid"

	_, err := a.ProcessWebhook(context.Background(), payload)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidSignature))
}

func TestAdapter_Refund(t *testing.T) {
	var received refundRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/FL-00000020/refund", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"status": "refunded", "refund_id": "R-1"})
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
	raw, err := a.Refund(context.Background(), "FL-00000020", decimal.NewFromInt(2500))
	require.NoError(t, err)

	assert.Equal(t, "2500.00", received.Amount)
	assert.Equal(t, "UBL-M1", received.MerchantID)
	assert.Equal(t, "R-1", raw["refund_id"])
}

func TestAdapter_Refund_Declined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "already refunded"})
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
	_, err := a.Refund(context.Background(), "FL-1", decimal.Zero)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayRejected))
}

func TestAdapter_CallbackSucceeded(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	ok, _ := a.CallbackSucceeded(map[string]string{"status": "paid"})
	assert.True(t, ok)
	ok, _ = a.CallbackSucceeded(map[string]string{"status": "declined"})
	assert.False(t, ok)
}
