package featured

import (
	"net/http"

	"github.com/ncpwheels/featured-payments/internal/auth"
	"github.com/ncpwheels/featured-payments/internal/domain"
)

type planView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        string `json:"price"`
	DurationDays int    `json:"durationDays"`
}

// HandleListPlans lists purchasable plans
// GET /featured-listing/plans
func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, planView{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price.StringFixed(2),
			DurationDays: p.DurationDays,
		})
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": statusSuccess,
		"plans":  views,
	})
}

// HandleGetPayment returns a seller's own payment
// GET /featured-listing/payments/{paymentId}
func (h *Handler) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPayment(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  statusSuccess,
		"payment": toPaymentView(p),
	})
}

// HandleVerifyPayment polls the gateway for a seller's unsettled payment
// POST /featured-listing/payments/{paymentId}/verify
func (h *Handler) HandleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPayment(w, r)
	if !ok {
		return
	}

	updated, err := h.svc.VerifyPaymentStatus(r.Context(), p.ID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  statusSuccess,
		"payment": toPaymentView(updated),
	})
}

func (h *Handler) ownedPayment(w http.ResponseWriter, r *http.Request) (*domain.Payment, bool) {
	sellerID, ok := auth.SellerID(r.Context())
	if !ok {
		h.respondWithError(w, r, domain.ErrNotAuthorized)
		return nil, false
	}

	paymentID, ok := h.paymentIDParam(w, r)
	if !ok {
		return nil, false
	}

	p, err := h.svc.GetPayment(r.Context(), paymentID)
	if err != nil {
		h.respondWithError(w, r, err)
		return nil, false
	}
	if !p.IsOwnedBy(sellerID) {
		// Do not reveal other sellers' payments
		h.respondWithError(w, r, domain.ErrPaymentNotFound)
		return nil, false
	}
	return p, true
}
