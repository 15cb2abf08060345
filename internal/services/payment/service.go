// Package payment orchestrates featured-listing payments across gateways.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/ncpwheels/featured-payments/pkg/observability"
	"github.com/shopspring/decimal"
)

// Outcome sources, used as metric labels and response keys
const (
	sourceInitiate = "initiate"
	sourceCallback = "callback"
	sourceWebhook  = "webhook"
	sourcePoll     = "poll"
	sourceRefund   = "refund"
)

// GatewayResolver returns the adapter for a provider name
type GatewayResolver interface {
	Resolve(ctx context.Context, name string) (ports.GatewayAdapter, error)
}

// FeaturedActivator grants and revokes featured windows inside a payment transaction
type FeaturedActivator interface {
	Activate(ctx context.Context, tx ports.DBTX, p *domain.Payment) (bool, error)
	DeactivateForPayment(ctx context.Context, tx ports.DBTX, p *domain.Payment) error
}

// CallbackURLBuilder builds the gateway return URL for a payment ID
type CallbackURLBuilder func(paymentID string) string

// InitiatePaymentRequest is a seller's request to buy a featured window
type InitiatePaymentRequest struct {
	SellerID     string
	ListingID    string
	PlanID       string
	GatewayName  string
	MobileNumber string
	Email        string
}

// InitiatePaymentResult tells the seller where to pay
type InitiatePaymentResult struct {
	PaymentID         string
	ExternalPaymentID string
	RedirectURL       string
	Gateway           string
	Amount            decimal.Decimal
}

// Service drives the payment state machine
type Service struct {
	db        ports.DBPort
	payments  ports.PaymentRepository
	plans     ports.PlanRepository
	listings  ports.ListingStore
	gateways  GatewayResolver
	activator FeaturedActivator
	logger    ports.Logger
	now       func() time.Time
}

// NewService creates a new payment service
func NewService(
	db ports.DBPort,
	payments ports.PaymentRepository,
	plans ports.PlanRepository,
	listings ports.ListingStore,
	gateways GatewayResolver,
	activator FeaturedActivator,
	logger ports.Logger,
) *Service {
	return &Service{
		db:        db,
		payments:  payments,
		plans:     plans,
		listings:  listings,
		gateways:  gateways,
		activator: activator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// InitiatePayment creates a pending payment and asks the gateway for a checkout redirect.
// Nothing is persisted unless the seller owns the listing, the plan is active and the
// gateway resolves.
func (s *Service) InitiatePayment(ctx context.Context, req InitiatePaymentRequest, callbackURL CallbackURLBuilder) (*InitiatePaymentResult, error) {
	listing, err := s.listings.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwnedBy(req.SellerID) {
		s.logger.Warn("Featured payment attempted by non-owner",
			ports.String("listing_id", req.ListingID),
			ports.String("seller_id", req.SellerID),
		)
		return nil, domain.ErrNotAuthorized
	}

	plan, err := s.plans.GetActive(ctx, nil, req.PlanID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.gateways.Resolve(ctx, req.GatewayName)
	if err != nil {
		return nil, err
	}

	p := domain.NewPayment(req.SellerID, req.ListingID, plan, adapter.Name(), s.now())
	if err := s.payments.Create(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	observability.RecordPaymentTransition(p.GatewayName, sourceInitiate, string(p.Status))

	s.logger.Info("Featured payment created",
		ports.String("payment_id", p.ID),
		ports.String("external_payment_id", p.ExternalPaymentID),
		ports.String("gateway", p.GatewayName),
		ports.String("plan_id", p.PlanID),
		ports.String("amount", p.Amount.StringFixed(2)),
	)

	res, err := adapter.Initiate(ctx, ports.InitiateRequest{
		Amount:       p.Amount,
		PaymentID:    p.ExternalPaymentID,
		CallbackURL:  callbackURL(p.ID),
		Description:  fmt.Sprintf("Featured listing: %s", plan.Name),
		MobileNumber: req.MobileNumber,
		Email:        req.Email,
	})
	if err != nil {
		return nil, s.initiateFailed(ctx, p, err)
	}

	err = s.locked(ctx, p.ID, func(ctx context.Context, tx pgx.Tx, locked *domain.Payment) error {
		locked.RecordGatewayResponse(sourceInitiate, initiateRecord(res))
		if locked.Status != domain.PaymentStatusPending {
			// A webhook beat us to it. Keep its outcome.
			return s.payments.Update(ctx, tx, locked)
		}
		if err := locked.TransitionTo(domain.PaymentStatusProcessing, s.now()); err != nil {
			return err
		}
		return s.payments.Update(ctx, tx, locked)
	})
	if err != nil {
		return nil, err
	}

	return &InitiatePaymentResult{
		PaymentID:         p.ID,
		ExternalPaymentID: p.ExternalPaymentID,
		RedirectURL:       res.RedirectURL,
		Gateway:           p.GatewayName,
		Amount:            p.Amount,
	}, nil
}

// initiateFailed records a failed Initiate call and returns the error to surface.
// A timed out call may have reached the provider, so the payment stays pending and
// the webhook decides.
func (s *Service) initiateFailed(ctx context.Context, p *domain.Payment, cause error) error {
	fields := []ports.Field{
		ports.String("payment_id", p.ID),
		ports.String("external_payment_id", p.ExternalPaymentID),
		ports.String("gateway", p.GatewayName),
		ports.Err(cause),
	}

	if domain.IsTimeoutError(cause) {
		s.logger.Warn("Gateway initiate timed out, payment left pending", fields...)
		if domain.IsDomainError(cause, domain.ErrorCodeGatewayUnavailable) {
			return cause
		}
		return domain.WrapError(domain.ErrorCodeGatewayUnavailable, "Payment gateway is unavailable", cause)
	}

	s.logger.Error("Gateway initiate failed", fields...)

	err := s.locked(ctx, p.ID, func(ctx context.Context, tx pgx.Tx, locked *domain.Payment) error {
		if locked.Status.IsSettled() {
			return nil
		}
		locked.RecordGatewayResponse(sourceInitiate, map[string]interface{}{
			"error": domain.UserMessage(cause),
			"code":  string(domain.GetErrorCode(cause)),
		})
		if err := locked.TransitionTo(domain.PaymentStatusFailed, s.now()); err != nil {
			return err
		}
		return s.payments.Update(ctx, tx, locked)
	})
	if err != nil {
		s.logger.Error("Failed to mark payment failed",
			ports.String("payment_id", p.ID),
			ports.Err(err),
		)
	} else {
		observability.RecordPaymentTransition(p.GatewayName, sourceInitiate, string(domain.PaymentStatusFailed))
	}

	if domain.IsGatewayError(cause) {
		return cause
	}
	return domain.WrapError(domain.ErrorCodeGatewayUnavailable, "Payment gateway is unavailable", cause)
}

// HandleCallback applies the browser return from the gateway.
// Settled payments are returned unchanged.
func (s *Service) HandleCallback(ctx context.Context, paymentID string, query map[string]string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status.IsSettled() {
		return p, nil
	}

	adapter, err := s.gateways.Resolve(ctx, p.GatewayName)
	if err != nil {
		return nil, err
	}

	succeeded, code := adapter.CallbackSucceeded(query)
	outcome := domain.GatewayStatusFailed
	if succeeded {
		outcome = domain.GatewayStatusCompleted
	}

	s.logger.Info("Gateway callback received",
		ports.String("payment_id", p.ID),
		ports.String("gateway", p.GatewayName),
		ports.String("response_code", code),
		ports.Bool("succeeded", succeeded),
	)

	updated, _, err := s.settle(ctx, paymentID, outcome, sourceCallback, stringMap(query))
	return updated, err
}

// HandleWebhook verifies a server-to-server notification and applies its outcome.
// Signature and payload checks run before the payment row is touched. Replays of a
// settled payment are no-ops.
func (s *Service) HandleWebhook(ctx context.Context, paymentID string, payload map[string]string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.gateways.Resolve(ctx, p.GatewayName)
	if err != nil {
		return nil, err
	}

	result, err := adapter.ProcessWebhook(ctx, payload)
	if err != nil {
		observability.RecordWebhook(p.GatewayName, "rejected")
		s.logger.Warn("Webhook rejected",
			ports.String("payment_id", p.ID),
			ports.String("gateway", p.GatewayName),
			ports.String("external_payment_id", p.ExternalPaymentID),
			ports.Err(err),
		)
		return nil, err
	}

	if result.ExternalPaymentID != p.ExternalPaymentID {
		observability.RecordWebhook(p.GatewayName, "rejected")
		s.logger.Warn("Webhook order reference does not match payment",
			ports.String("payment_id", p.ID),
			ports.String("expected", p.ExternalPaymentID),
			ports.String("received", result.ExternalPaymentID),
		)
		return nil, domain.ErrInvalidPayload
	}

	if result.Status == domain.GatewayStatusCompleted && !result.Amount.Equal(p.Amount) {
		observability.RecordWebhook(p.GatewayName, "rejected")
		s.logger.Error("Webhook amount mismatch",
			ports.String("payment_id", p.ID),
			ports.String("gateway", p.GatewayName),
			ports.String("expected", p.Amount.StringFixed(2)),
			ports.String("received", result.Amount.StringFixed(2)),
		)
		return nil, domain.NewDomainError(domain.ErrorCodeAmountMismatch, domain.ErrAmountMismatch.Message).
			WithDetail("payment_id", p.ID)
	}

	if p.Status.IsSettled() {
		observability.RecordWebhook(p.GatewayName, "duplicate")
		return p, nil
	}

	raw := result.Raw
	if raw == nil {
		raw = map[string]interface{}{}
	}
	raw["response_code"] = result.ResponseCode
	raw["transaction_id"] = result.ProviderTransactionID

	updated, changed, err := s.settle(ctx, paymentID, result.Status, sourceWebhook, raw)
	if err != nil {
		return nil, err
	}
	if changed {
		observability.RecordWebhook(p.GatewayName, "processed")
	} else {
		observability.RecordWebhook(p.GatewayName, "duplicate")
	}
	return updated, nil
}

// VerifyPaymentStatus polls the gateway for a payment that has not settled yet.
// A pending answer or an unreachable gateway leaves the payment unchanged.
func (s *Service) VerifyPaymentStatus(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status.IsSettled() {
		return p, nil
	}

	adapter, err := s.gateways.Resolve(ctx, p.GatewayName)
	if err != nil {
		return nil, err
	}

	status, err := adapter.VerifyStatus(ctx, p.ExternalPaymentID)
	if err != nil {
		s.logger.Warn("Gateway status poll failed",
			ports.String("payment_id", p.ID),
			ports.String("gateway", p.GatewayName),
			ports.Err(err),
		)
		return nil, err
	}
	if status == domain.GatewayStatusPending {
		return p, nil
	}

	updated, _, err := s.settle(ctx, paymentID, status, sourcePoll, map[string]interface{}{"status": string(status)})
	return updated, err
}

// GetPayment returns a payment by ID
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.payments.GetByID(ctx, nil, paymentID)
}

// ListPlans returns the active plans, cheapest first
func (s *Service) ListPlans(ctx context.Context) ([]*domain.PaymentPlan, error) {
	return s.plans.ListActive(ctx, nil)
}

// RefundPayment moves a completed payment to refunded and ends its featured window.
// Gateways with a refund API are called first; the rest are recorded as manual refunds.
func (s *Service) RefundPayment(ctx context.Context, paymentID, reason string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentStatusCompleted {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidTransition, "Only completed payments can be refunded").
			WithDetail("status", string(p.Status))
	}

	adapter, err := s.gateways.Resolve(ctx, p.GatewayName)
	if err != nil {
		return nil, err
	}

	record := map[string]interface{}{"reason": reason, "method": "manual"}
	if refunder, ok := adapter.(ports.Refunder); ok {
		raw, err := refunder.Refund(ctx, p.ExternalPaymentID, p.Amount)
		if err != nil {
			s.logger.Error("Gateway refund failed",
				ports.String("payment_id", p.ID),
				ports.String("gateway", p.GatewayName),
				ports.Err(err),
			)
			return nil, err
		}
		record["method"] = "gateway"
		record["gateway"] = raw
	}

	var refunded *domain.Payment
	err = s.locked(ctx, paymentID, func(ctx context.Context, tx pgx.Tx, locked *domain.Payment) error {
		if err := locked.TransitionTo(domain.PaymentStatusRefunded, s.now()); err != nil {
			return err
		}
		locked.RecordGatewayResponse(sourceRefund, record)
		if err := s.activator.DeactivateForPayment(ctx, tx, locked); err != nil {
			return err
		}
		refunded = locked
		return s.payments.Update(ctx, tx, locked)
	})
	if err != nil {
		return nil, err
	}

	observability.RecordPaymentTransition(p.GatewayName, sourceRefund, string(domain.PaymentStatusRefunded))
	s.logger.Info("Featured payment refunded",
		ports.String("payment_id", p.ID),
		ports.String("gateway", p.GatewayName),
		ports.String("method", record["method"].(string)),
	)
	return refunded, nil
}

// settle applies a gateway outcome under the payment row lock. Completion activates
// the featured window in the same transaction.
func (s *Service) settle(ctx context.Context, paymentID string, outcome domain.GatewayStatus, source string, raw map[string]interface{}) (*domain.Payment, bool, error) {
	var (
		result  *domain.Payment
		changed bool
	)

	err := s.locked(ctx, paymentID, func(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
		result = p
		if p.Status.IsSettled() {
			return nil
		}

		var next domain.PaymentStatus
		switch outcome {
		case domain.GatewayStatusCompleted:
			next = domain.PaymentStatusCompleted
		case domain.GatewayStatusFailed:
			next = domain.PaymentStatusFailed
		default:
			return nil
		}

		if err := p.TransitionTo(next, s.now()); err != nil {
			return err
		}
		p.RecordGatewayResponse(source, raw)

		if next == domain.PaymentStatusCompleted {
			if _, err := s.activator.Activate(ctx, tx, p); err != nil {
				return fmt.Errorf("activate featured listing: %w", err)
			}
		}

		if err := s.payments.Update(ctx, tx, p); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to apply gateway outcome",
			ports.String("payment_id", paymentID),
			ports.String("source", source),
			ports.String("outcome", string(outcome)),
			ports.Err(err),
		)
		return nil, false, err
	}

	if changed {
		observability.RecordPaymentTransition(result.GatewayName, source, string(result.Status))
		if result.Status == domain.PaymentStatusCompleted {
			revenue, _ := result.Amount.Float64()
			observability.RecordPaymentRevenue(result.GatewayName, result.Currency, revenue)
		}
		s.logger.Info("Payment status updated",
			ports.String("payment_id", result.ID),
			ports.String("external_payment_id", result.ExternalPaymentID),
			ports.String("gateway", result.GatewayName),
			ports.String("source", source),
			ports.String("status", string(result.Status)),
		)
	}
	return result, changed, nil
}

// locked runs fn in a transaction holding the payment row lock
func (s *Service) locked(ctx context.Context, paymentID string, fn func(ctx context.Context, tx pgx.Tx, p *domain.Payment) error) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		p, err := s.payments.GetByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, p)
	})
}

func initiateRecord(res *ports.InitiateResult) map[string]interface{} {
	record := map[string]interface{}{
		"redirect_url":  res.RedirectURL,
		"gateway_token": res.GatewayToken,
	}
	if res.Raw != nil {
		record["raw"] = res.Raw
	}
	return record
}

func stringMap(in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
