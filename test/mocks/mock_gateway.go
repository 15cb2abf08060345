package mocks

import (
	"context"
	"sync"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/shopspring/decimal"
)

// MockGateway is a scriptable GatewayAdapter for service and handler tests
type MockGateway struct {
	mu sync.Mutex

	name string

	// Responses to return
	initiateResult *ports.InitiateResult
	initiateError  error
	verifyStatus   domain.GatewayStatus
	verifyError    error
	webhookResult  *ports.WebhookResult
	webhookError   error
	callbackCode   string
	refundError    error

	// Call tracking
	InitiateCalls int
	VerifyCalls   int
	WebhookCalls  int
	CallbackCalls int
	RefundCalls   int

	// Last request received
	LastInitiateReq *ports.InitiateRequest
	LastPayload     map[string]string
}

// NewMockGateway creates a mock gateway that succeeds by default
func NewMockGateway(name string) *MockGateway {
	return &MockGateway{
		name: name,
		initiateResult: &ports.InitiateResult{
			RedirectURL:  "https://pay.example/redirect",
			GatewayToken: "tok_123",
			Raw:          map[string]interface{}{"token": "tok_123"},
		},
		verifyStatus: domain.GatewayStatusPending,
		callbackCode: "0000",
	}
}

func (m *MockGateway) Name() string { return m.name }

// SetInitiateResponse configures Initiate
func (m *MockGateway) SetInitiateResponse(result *ports.InitiateResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initiateResult = result
	m.initiateError = err
}

// SetVerifyResponse configures VerifyStatus
func (m *MockGateway) SetVerifyResponse(status domain.GatewayStatus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyStatus = status
	m.verifyError = err
}

// SetWebhookResponse configures ProcessWebhook
func (m *MockGateway) SetWebhookResponse(result *ports.WebhookResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhookResult = result
	m.webhookError = err
}

// SetCallbackSuccessCode sets the query "status" value treated as success
func (m *MockGateway) SetCallbackSuccessCode(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbackCode = code
}

// SetRefundError configures Refund
func (m *MockGateway) SetRefundError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundError = err
}

func (m *MockGateway) Initiate(ctx context.Context, req ports.InitiateRequest) (*ports.InitiateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitiateCalls++
	m.LastInitiateReq = &req
	if m.initiateError != nil {
		return nil, m.initiateError
	}
	return m.initiateResult, nil
}

func (m *MockGateway) VerifyStatus(ctx context.Context, externalPaymentID string) (domain.GatewayStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyCalls++
	return m.verifyStatus, m.verifyError
}

func (m *MockGateway) ProcessWebhook(ctx context.Context, payload map[string]string) (*ports.WebhookResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WebhookCalls++
	m.LastPayload = payload
	if m.webhookError != nil {
		return nil, m.webhookError
	}
	return m.webhookResult, nil
}

func (m *MockGateway) CallbackSucceeded(query map[string]string) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallbackCalls++
	code := query["status"]
	return code == m.callbackCode, code
}

func (m *MockGateway) Refund(ctx context.Context, externalPaymentID string, amount decimal.Decimal) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundCalls++
	if m.refundError != nil {
		return nil, m.refundError
	}
	return map[string]interface{}{"refunded": externalPaymentID}, nil
}

// Calls returns a snapshot of the call counters
func (m *MockGateway) Calls() (initiate, verify, webhook, callback int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.InitiateCalls, m.VerifyCalls, m.WebhookCalls, m.CallbackCalls
}
