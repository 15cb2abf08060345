package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a featured-listing payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // Row persisted, gateway not yet answered
	PaymentStatusProcessing PaymentStatus = "processing" // Handed to the gateway, awaiting outcome
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// CurrencyPKR is the only currency featured listings are sold in
const CurrencyPKR = "PKR"

// ExternalPaymentIDPrefix marks order references sent to gateways
const ExternalPaymentIDPrefix = "FL-"

var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
}

// IsValid reports whether s is a known status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// IsSettled is true once the gateway outcome is known. Callbacks, webhooks and
// polls are no-ops from here on.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// GatewayStatus is the normalized outcome reported by a gateway
type GatewayStatus string

const (
	GatewayStatusCompleted GatewayStatus = "completed"
	GatewayStatusPending   GatewayStatus = "pending"
	GatewayStatusFailed    GatewayStatus = "failed"
)

// Payment is a seller's purchase of a featured window for one listing
type Payment struct {
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	ActiveWindowStart *time.Time             `json:"active_window_start,omitempty"`
	ActiveWindowEnd   *time.Time             `json:"active_window_end,omitempty"`
	GatewayResponse   map[string]interface{} `json:"gateway_response"`
	ID                string                 `json:"id"`
	SellerID          string                 `json:"seller_id"`
	ListingID         string                 `json:"listing_id"`
	PlanID            string                 `json:"plan_id"`
	GatewayName       string                 `json:"gateway_name"`
	ExternalPaymentID string                 `json:"external_payment_id"`
	Currency          string                 `json:"currency"`
	Status            PaymentStatus          `json:"status"`
	Amount            decimal.Decimal        `json:"amount"`
	PlanDurationDays  int                    `json:"plan_duration_days"`
}

// NewPayment builds a pending payment that snapshots the plan's price and duration
func NewPayment(sellerID, listingID string, plan *PaymentPlan, gatewayName string, now time.Time) *Payment {
	return &Payment{
		ID:                uuid.NewString(),
		SellerID:          sellerID,
		ListingID:         listingID,
		PlanID:            plan.ID,
		PlanDurationDays:  plan.DurationDays,
		GatewayName:       gatewayName,
		ExternalPaymentID: NewExternalPaymentID(),
		Amount:            plan.Price,
		Currency:          CurrencyPKR,
		Status:            PaymentStatusPending,
		GatewayResponse:   map[string]interface{}{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// NewExternalPaymentID returns FL- followed by 8 random hex characters
func NewExternalPaymentID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return ExternalPaymentIDPrefix + hex[:8]
}

// TransitionTo moves the payment to next or returns ErrInvalidTransition
func (p *Payment) TransitionTo(next PaymentStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return WrapError(ErrorCodeInvalidTransition,
			"Payment status transition not allowed",
			fmt.Errorf("%s -> %s", p.Status, next)).
			WithDetail("payment_id", p.ID)
	}
	p.Status = next
	p.UpdatedAt = now
	return nil
}

// RecordGatewayResponse stores a provider payload under key for audit
func (p *Payment) RecordGatewayResponse(key string, raw map[string]interface{}) {
	if p.GatewayResponse == nil {
		p.GatewayResponse = map[string]interface{}{}
	}
	p.GatewayResponse[key] = raw
}

// IsActivated is true once a featured window has been stamped on the payment
func (p *Payment) IsActivated() bool {
	return p.ActiveWindowStart != nil
}

// IsOwnedBy reports whether sellerID initiated the payment
func (p *Payment) IsOwnedBy(sellerID string) bool {
	return p.SellerID == sellerID
}
