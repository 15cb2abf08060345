package jazzcash

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

const testSalt = "salt-123"

func newAdapter(t *testing.T, env domain.Environment, baseURL string, client ports.HTTPClient) *Adapter {
	t.Helper()
	a, err := New(domain.GatewayConfig{
		GatewayName: domain.GatewayJazzCash,
		IsActive:    true,
		Environment: env,
		Credentials: map[string]string{
			"merchant_id":    "MC1001",
			"password":       "pw",
			"integrity_salt": testSalt,
			"base_url":       baseURL,
		},
	}, gatewayhttp.Deps{HTTPClient: client, Logger: mocks.NewMockLogger()})
	require.NoError(t, err)
	return a
}

func TestSecureHash_SortsAndSkipsEmpty(t *testing.T) {
	a := SecureHash(testSalt, map[string]string{"b": "2", "a": "1", "c": ""})
	b := SecureHash(testSalt, map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, SecureHash("other-salt", map[string]string{"a": "1", "b": "2"}))
}

func TestAdapter_Initiate_Sandbox(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	a := newAdapter(t, domain.EnvironmentSandbox, "", httpClient)

	res, err := a.Initiate(context.Background(), ports.InitiateRequest{
		Amount:    decimal.NewFromInt(5000),
		PaymentID: "FL-cafebabe",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.jazzcash.com.pk/checkout?token=sandbox_FL-cafebabe", res.RedirectURL)
	assert.Equal(t, 0, httpClient.CallCount())
}

func TestAdapter_Initiate_Production(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/create", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{
			"response_code": "000",
			"redirect_url":  "https://payments.jazzcash.com.pk/checkout/abc",
			"txn_ref_no":    "FL-00000010",
		})
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
	res, err := a.Initiate(context.Background(), ports.InitiateRequest{
		Amount:       decimal.NewFromInt(1000),
		PaymentID:    "FL-00000010",
		CallbackURL:  "https://example.test/cb",
		MobileNumber: "03211234567",
	})
	require.NoError(t, err)

	assert.Equal(t, "1000.00", received["amount"])
	sent := received[fieldSecureHash]
	delete(received, fieldSecureHash)
	assert.Equal(t, SecureHash(testSalt, received), sent)
	assert.Equal(t, "https://payments.jazzcash.com.pk/checkout/abc", res.RedirectURL)
}

func TestAdapter_Initiate_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response_code": "199"})
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
	_, err := a.Initiate(context.Background(), ports.InitiateRequest{Amount: decimal.NewFromInt(1), PaymentID: "FL-1"})

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayRejected))
	assert.Contains(t, domain.UserMessage(err), "Transaction declined")
}

func TestAdapter_Initiate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
	_, err := a.Initiate(context.Background(), ports.InitiateRequest{Amount: decimal.NewFromInt(1), PaymentID: "FL-1"})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayUnavailable))
}

func TestAdapter_VerifyStatus(t *testing.T) {
	tests := []struct {
		code string
		want domain.GatewayStatus
	}{
		{"000", domain.GatewayStatusCompleted},
		{"121", domain.GatewayStatusPending},
		{"157", domain.GatewayStatusPending},
		{"199", domain.GatewayStatusFailed},
		{"555", domain.GatewayStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/payments/FL-77/status", r.URL.Path)
				q := r.URL.Query()
				assert.Equal(t, "FL-77", q.Get("txn_ref_no"))
				assert.Equal(t, SecureHash(testSalt, map[string]string{
					"merchant_id": "MC1001",
					"txn_ref_no":  "FL-77",
				}), q.Get(fieldSecureHash))
				json.NewEncoder(w).Encode(map[string]string{"response_code": tt.code})
			}))
			defer server.Close()

			a := newAdapter(t, domain.EnvironmentProduction, server.URL, server.Client())
			status, err := a.VerifyStatus(context.Background(), "FL-77")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func signedWebhook(code string) map[string]string {
	payload := map[string]string{
		"txn_ref_no":     "FL-00000010",
		"amount":         "1000.00",
		"currency":       "PKR",
		"response_code":  code,
		"transaction_id": "JC-5",
	}
	payload[fieldSecureHash] = SecureHash(testSalt, payload)
	return payload
}

func TestAdapter_ProcessWebhook(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	res, err := a.ProcessWebhook(context.Background(), signedWebhook("000"))
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusCompleted, res.Status)
	assert.Equal(t, "FL-00000010", res.ExternalPaymentID)
	assert.Equal(t, "JC-5", res.ProviderTransactionID)
	assert.True(t, decimal.NewFromInt(1000).Equal(res.Amount))

	res, err = a.ProcessWebhook(context.Background(), signedWebhook("124"))
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusPending, res.Status)
}

func TestAdapter_ProcessWebhook_ExtraFieldChangesSignature(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	payload := signedWebhook("000")
	payload["amount"] = "1.00"

	_, err := a.ProcessWebhook(context.Background(), payload)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidSignature))
}

func TestAdapter_ProcessWebhook_MissingField(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	payload := map[string]string{"txn_ref_no": "FL-1", "response_code": "000"}
	payload[fieldSecureHash] = SecureHash(testSalt, payload)

	_, err := a.ProcessWebhook(context.Background(), payload)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidPayload))
}

func TestAdapter_CallbackSucceeded(t *testing.T) {
	a := newAdapter(t, domain.EnvironmentSandbox, "", nil)

	ok, _ := a.CallbackSucceeded(map[string]string{"response_code": "000"})
	assert.True(t, ok)
	ok, _ = a.CallbackSucceeded(map[string]string{"response_code": "121"})
	assert.False(t, ok)
}
