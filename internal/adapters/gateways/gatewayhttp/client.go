// Package gatewayhttp is the outbound HTTP path shared by provider adapters:
// JSON encoding, circuit breaking, metrics and the mapping of transport and
// HTTP failures onto the gateway error taxonomy.
package gatewayhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	pkgerrors "github.com/ncpwheels/featured-payments/pkg/errors"
	"github.com/ncpwheels/featured-payments/pkg/observability"
)

const maxResponseBytes = 1 << 20

// Client performs provider calls for a single gateway
type Client struct {
	http    ports.HTTPClient
	breaker *CircuitBreaker
	logger  ports.Logger
	gateway string
}

// NewClient creates a gateway client. breaker may be nil.
func NewClient(gateway string, httpClient ports.HTTPClient, breaker *CircuitBreaker, logger ports.Logger) *Client {
	return &Client{
		http:    httpClient,
		breaker: breaker,
		logger:  logger,
		gateway: gateway,
	}
}

type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d", e.status)
}

// PostJSON sends body as JSON and decodes the JSON response into out
func (c *Client) PostJSON(ctx context.Context, operation, endpoint string, headers map[string]string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, operation, headers, out)
}

// GetJSON issues a GET with query parameters and decodes the JSON response into out
func (c *Client) GetJSON(ctx context.Context, operation, endpoint string, headers map[string]string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	return c.do(req, operation, headers, out)
}

func (c *Client) do(req *http.Request, operation string, headers map[string]string, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	var (
		status int
		body   []byte
	)
	call := func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if status >= http.StatusInternalServerError {
			return &serverError{status: status}
		}
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Call(call)
	} else {
		err = call()
	}
	elapsed := time.Since(start)

	if err != nil {
		observability.RecordGatewayRequest(c.gateway, operation, "unavailable", elapsed.Seconds())
		c.logger.Error("Gateway request failed",
			ports.String("gateway", c.gateway),
			ports.String("operation", operation),
			ports.Duration("elapsed", elapsed),
			ports.Err(err),
		)
		return Unavailable(c.gateway, err)
	}

	if status >= http.StatusBadRequest {
		observability.RecordGatewayRequest(c.gateway, operation, "rejected", elapsed.Seconds())
		c.logger.Warn("Gateway returned client error",
			ports.String("gateway", c.gateway),
			ports.String("operation", operation),
			ports.Int("http_status", status),
		)
		return Rejected(c.gateway, fmt.Sprintf("HTTP_%d", status), string(truncate(body, 256)))
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			observability.RecordGatewayRequest(c.gateway, operation, "unavailable", elapsed.Seconds())
			return Unavailable(c.gateway, fmt.Errorf("decode %s response: %w", operation, err))
		}
	}

	observability.RecordGatewayRequest(c.gateway, operation, "ok", elapsed.Seconds())
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// Unavailable wraps a transport failure as GatewayUnavailable. The cause stays
// in the chain so callers can tell timeouts apart.
func Unavailable(gateway string, cause error) error {
	code := "NETWORK_ERROR"
	if errors.Is(cause, ErrCircuitOpen) || errors.Is(cause, ErrTooManyRequests) {
		code = "CIRCUIT_OPEN"
	}
	perr := pkgerrors.NewPaymentError(code, "gateway request failed", pkgerrors.CategoryNetworkError, true).
		WithCause(cause)
	return domain.WrapError(domain.ErrorCodeGatewayUnavailable, "Payment gateway is unavailable", perr).
		WithDetail("gateway", gateway)
}

// Rejected builds a GatewayRejected error carrying the provider's message
func Rejected(gateway, providerCode, providerMessage string) error {
	perr := pkgerrors.NewPaymentError(providerCode, "gateway rejected request", pkgerrors.CategoryRejected, false).
		WithGatewayMessage(providerMessage)
	msg := "Payment gateway rejected the request"
	if providerMessage != "" {
		msg = msg + ": " + providerMessage
	}
	return domain.WrapError(domain.ErrorCodeGatewayRejected, msg, perr).
		WithDetail("gateway", gateway).
		WithDetail("provider_code", providerCode)
}

// InvalidSignature builds the webhook signature rejection
func InvalidSignature(gateway string) error {
	return domain.WrapError(domain.ErrorCodeInvalidSignature, "Invalid webhook signature",
		pkgerrors.NewPaymentError("SIGNATURE_MISMATCH", "recomputed signature differs", pkgerrors.CategorySignature, false)).
		WithDetail("gateway", gateway)
}

// InvalidPayload builds a malformed payload rejection naming the missing field
func InvalidPayload(gateway, field string) error {
	return domain.WrapError(domain.ErrorCodeInvalidPayload, "Malformed gateway payload",
		pkgerrors.NewValidationError(field, "missing or invalid")).
		WithDetail("gateway", gateway)
}
