package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a provider-level failure
type ErrorCategory string

const (
	CategoryNetworkError   ErrorCategory = "network_error"
	CategorySystemError    ErrorCategory = "system_error"
	CategoryRejected       ErrorCategory = "rejected"
	CategoryInvalidRequest ErrorCategory = "invalid_request"
	CategorySignature      ErrorCategory = "signature"
)

// PaymentError carries the provider's own code and message behind a domain error
type PaymentError struct {
	Err            error
	Details        map[string]interface{}
	Code           string
	Message        string
	GatewayMessage string
	Category       ErrorCategory
	IsRetriable    bool
}

func (e *PaymentError) Error() string {
	if e.GatewayMessage != "" {
		return fmt.Sprintf("%s: %s (gateway: %s)", e.Code, e.Message, e.GatewayMessage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the transport error, if any, so timeouts stay detectable
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, category ErrorCategory, retriable bool) *PaymentError {
	return &PaymentError{
		Code:        code,
		Message:     message,
		Category:    category,
		IsRetriable: retriable,
		Details:     make(map[string]interface{}),
	}
}

// WithGatewayMessage attaches the provider's human readable message
func (e *PaymentError) WithGatewayMessage(msg string) *PaymentError {
	e.GatewayMessage = msg
	return e
}

// WithCause attaches the underlying error
func (e *PaymentError) WithCause(err error) *PaymentError {
	e.Err = err
	return e
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
