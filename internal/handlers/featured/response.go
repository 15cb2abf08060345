package featured

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type paymentView struct {
	ID                string     `json:"paymentId"`
	ExternalPaymentID string     `json:"externalPaymentId"`
	ListingID         string     `json:"listingId"`
	PlanID            string     `json:"planId"`
	Gateway           string     `json:"gateway"`
	Amount            string     `json:"amount"`
	Currency          string     `json:"currency"`
	PaymentStatus     string     `json:"paymentStatus"`
	DurationDays      int        `json:"durationDays"`
	FeaturedFrom      *time.Time `json:"featuredFrom,omitempty"`
	FeaturedUntil     *time.Time `json:"featuredUntil,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func toPaymentView(p *domain.Payment) paymentView {
	return paymentView{
		ID:                p.ID,
		ExternalPaymentID: p.ExternalPaymentID,
		ListingID:         p.ListingID,
		PlanID:            p.PlanID,
		Gateway:           p.GatewayName,
		Amount:            p.Amount.StringFixed(2),
		Currency:          p.Currency,
		PaymentStatus:     string(p.Status),
		DurationDays:      p.PlanDurationDays,
		FeaturedFrom:      p.ActiveWindowStart,
		FeaturedUntil:     p.ActiveWindowEnd,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorStatus maps a domain error code to its HTTP status
func errorStatus(err error) int {
	switch domain.GetErrorCode(err) {
	case domain.ErrorCodeValidationFailed,
		domain.ErrorCodeGatewayNotConfigured,
		domain.ErrorCodeGatewayDisabled,
		domain.ErrorCodeInvalidSignature,
		domain.ErrorCodeInvalidPayload,
		domain.ErrorCodeAmountMismatch:
		return http.StatusBadRequest
	case domain.ErrorCodeNotAuthorized:
		return http.StatusForbidden
	case domain.ErrorCodePlanNotFound,
		domain.ErrorCodeListingNotFound,
		domain.ErrorCodePaymentNotFound:
		return http.StatusNotFound
	case domain.ErrorCodeInvalidTransition:
		return http.StatusConflict
	case domain.ErrorCodeGatewayRejected:
		return http.StatusBadGateway
	case domain.ErrorCodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			ports.String("method", r.Method),
			ports.String("path", r.URL.Path),
			ports.Int("status", status),
			ports.Err(err),
		)
	}
	respondWithJSON(w, status, errorResponse{
		Status:  statusError,
		Message: domain.UserMessage(err),
		Code:    string(domain.GetErrorCode(err)),
	})
}

// validationError turns validator output into a single readable VALIDATION_FAILED error
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.WrapError(domain.ErrorCodeValidationFailed, "Invalid request", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return domain.WrapError(domain.ErrorCodeValidationFailed, strings.Join(msgs, "; "), err)
}
