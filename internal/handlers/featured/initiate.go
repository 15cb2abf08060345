package featured

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ncpwheels/featured-payments/internal/auth"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/ncpwheels/featured-payments/internal/services/payment"
)

const maxJSONBody = 1 << 16

// InitiatePaymentRequest is the seller's checkout request body
type InitiatePaymentRequest struct {
	PlanID       string `json:"planId" validate:"required,uuid"`
	GatewayName  string `json:"gatewayName" validate:"required,alphanum,max=32"`
	MobileNumber string `json:"mobileNumber,omitempty" validate:"omitempty,numeric,min=10,max=15"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
}

type initiatePaymentResponse struct {
	Status            string `json:"status"`
	PaymentID         string `json:"paymentId"`
	ExternalPaymentID string `json:"externalPaymentId"`
	Gateway           string `json:"gateway"`
	Amount            string `json:"amount"`
	RedirectURL       string `json:"redirectUrl"`
}

// HandleInitiatePayment starts a featured-listing purchase
// POST /featured-listing/{listingId}/initiate-payment
func (h *Handler) HandleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := auth.SellerID(r.Context())
	if !ok {
		h.respondWithError(w, r, domain.ErrNotAuthorized)
		return
	}

	var req InitiatePaymentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		h.respondWithError(w, r, domain.WrapError(domain.ErrorCodeValidationFailed, "Request body must be valid JSON", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, r, validationError(err))
		return
	}

	listingID := chi.URLParam(r, "listingId")
	res, err := h.svc.InitiatePayment(r.Context(), payment.InitiatePaymentRequest{
		SellerID:     sellerID,
		ListingID:    listingID,
		PlanID:       req.PlanID,
		GatewayName:  req.GatewayName,
		MobileNumber: req.MobileNumber,
		Email:        req.Email,
	}, h.CallbackURL)
	if err != nil {
		h.logger.Warn("Featured payment initiation failed",
			ports.String("listing_id", listingID),
			ports.String("seller_id", sellerID),
			ports.String("gateway", req.GatewayName),
			ports.Err(err),
		)
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, initiatePaymentResponse{
		Status:            statusSuccess,
		PaymentID:         res.PaymentID,
		ExternalPaymentID: res.ExternalPaymentID,
		Gateway:           res.Gateway,
		Amount:            res.Amount.StringFixed(2),
		RedirectURL:       res.RedirectURL,
	})
}
