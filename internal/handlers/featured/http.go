// Package featured exposes the featured-listing payment endpoints over HTTP.
package featured

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/ncpwheels/featured-payments/internal/services/payment"
)

// PaymentService is the orchestration surface the handlers drive
type PaymentService interface {
	InitiatePayment(ctx context.Context, req payment.InitiatePaymentRequest, callbackURL payment.CallbackURLBuilder) (*payment.InitiatePaymentResult, error)
	HandleCallback(ctx context.Context, paymentID string, query map[string]string) (*domain.Payment, error)
	HandleWebhook(ctx context.Context, paymentID string, payload map[string]string) (*domain.Payment, error)
	VerifyPaymentStatus(ctx context.Context, paymentID string) (*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListPlans(ctx context.Context) ([]*domain.PaymentPlan, error)
}

// Config holds the URLs the handlers hand out
type Config struct {
	// PublicBaseURL is where gateways reach this service, without a trailing slash
	PublicBaseURL string
	// SuccessURL and FailureURL are frontend pages; the payment ID is appended as a path segment
	SuccessURL string
	FailureURL string
}

// Handler serves /featured-listing
type Handler struct {
	svc      PaymentService
	cfg      Config
	validate *validator.Validate
	logger   ports.Logger
}

// NewHandler creates a featured-listing handler
func NewHandler(svc PaymentService, cfg Config, logger ports.Logger) *Handler {
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.SuccessURL = strings.TrimRight(cfg.SuccessURL, "/")
	cfg.FailureURL = strings.TrimRight(cfg.FailureURL, "/")
	return &Handler{
		svc:      svc,
		cfg:      cfg,
		validate: newValidator(),
		logger:   logger,
	}
}

// Routes builds the router to mount at /featured-listing. requireSeller guards the
// seller endpoints and gatewayLimit throttles the gateway-facing ones.
func (h *Handler) Routes(requireSeller, gatewayLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/plans", h.HandleListPlans)

	r.Group(func(r chi.Router) {
		r.Use(gatewayLimit)
		r.Get("/verify/{paymentId}", h.HandleCallback)
		r.Post("/verify/{paymentId}", h.HandleWebhook)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireSeller)
		r.Post("/{listingId}/initiate-payment", h.HandleInitiatePayment)
		r.Get("/payments/{paymentId}", h.HandleGetPayment)
		r.Post("/payments/{paymentId}/verify", h.HandleVerifyPayment)
	})

	return r
}

// CallbackURL is the gateway return and notification URL for a payment
func (h *Handler) CallbackURL(paymentID string) string {
	return h.cfg.PublicBaseURL + "/featured-listing/verify/" + paymentID
}

// paymentIDParam reads the {paymentId} path segment. Anything that is not a
// UUID cannot name a payment and is answered as not found.
func (h *Handler) paymentIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	paymentID := chi.URLParam(r, "paymentId")
	id, err := uuid.Parse(paymentID)
	if err != nil {
		h.logger.Warn("Malformed payment id",
			ports.String("payment_id", paymentID),
			ports.String("remote_addr", r.RemoteAddr),
		)
		h.respondWithError(w, r, domain.ErrPaymentNotFound)
		return "", false
	}
	return id.String(), true
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
