package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayNotConfigured ErrorCode = "GATEWAY_NOT_CONFIGURED"
	ErrorCodeGatewayDisabled      ErrorCode = "GATEWAY_DISABLED"
	ErrorCodeGatewayUnavailable   ErrorCode = "GATEWAY_UNAVAILABLE"
	ErrorCodeGatewayRejected      ErrorCode = "GATEWAY_REJECTED"

	// Webhook Errors
	ErrorCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	ErrorCodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	ErrorCodeAmountMismatch   ErrorCode = "AMOUNT_MISMATCH"

	// Authorization Errors
	ErrorCodeNotAuthorized ErrorCode = "NOT_AUTHORIZED"

	// Lookup Errors (*_NOT_FOUND)
	ErrorCodePlanNotFound    ErrorCode = "PLAN_NOT_FOUND"
	ErrorCodePaymentNotFound ErrorCode = "PAYMENT_NOT_FOUND"
	ErrorCodeListingNotFound ErrorCode = "LISTING_NOT_FOUND"

	// State Errors
	ErrorCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// Validation Errors
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Internal Errors
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code, so sentinel values work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// UserMessage returns the message meant for callers, hiding wrapped causes
func UserMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "An unexpected error occurred. Please try again later."
}

// IsNotFoundError checks if an error is any kind of not found error
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodePlanNotFound ||
		code == ErrorCodePaymentNotFound ||
		code == ErrorCodeListingNotFound
}

// IsGatewayError checks if an error came from gateway resolution or a provider call
func IsGatewayError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayNotConfigured ||
		code == ErrorCodeGatewayDisabled ||
		code == ErrorCodeGatewayUnavailable ||
		code == ErrorCodeGatewayRejected
}

// IsWebhookRejection reports errors that mean the webhook body itself cannot be trusted
func IsWebhookRejection(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeInvalidSignature ||
		code == ErrorCodeInvalidPayload ||
		code == ErrorCodeAmountMismatch
}

// IsTimeoutError reports whether the error chain carries a deadline or network timeout.
// A timed out provider call may still have succeeded upstream.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Sentinel errors for errors.Is comparisons
var (
	ErrGatewayNotConfigured = NewDomainError(ErrorCodeGatewayNotConfigured, "Payment gateway is not configured")
	ErrGatewayDisabled      = NewDomainError(ErrorCodeGatewayDisabled, "Payment gateway is disabled")
	ErrGatewayUnavailable   = NewDomainError(ErrorCodeGatewayUnavailable, "Payment gateway is unavailable")
	ErrGatewayRejected      = NewDomainError(ErrorCodeGatewayRejected, "Payment gateway rejected the request")
	ErrInvalidSignature     = NewDomainError(ErrorCodeInvalidSignature, "Invalid webhook signature")
	ErrInvalidPayload       = NewDomainError(ErrorCodeInvalidPayload, "Malformed gateway payload")
	ErrAmountMismatch       = NewDomainError(ErrorCodeAmountMismatch, "Paid amount does not match payment amount")
	ErrNotAuthorized        = NewDomainError(ErrorCodeNotAuthorized, "You are not authorized to feature this car")
	ErrPlanNotFound         = NewDomainError(ErrorCodePlanNotFound, "Plan not found or inactive")
	ErrPaymentNotFound      = NewDomainError(ErrorCodePaymentNotFound, "Payment not found")
	ErrListingNotFound      = NewDomainError(ErrorCodeListingNotFound, "Car not found")
	ErrInvalidTransition    = NewDomainError(ErrorCodeInvalidTransition, "Payment status transition not allowed")
)
