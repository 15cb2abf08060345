package featured

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// HandleCallback is the browser return from the gateway. It always ends in a
// redirect to the frontend except for unknown payments.
// GET /featured-listing/verify/{paymentId}
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := h.paymentIDParam(w, r)
	if !ok {
		return
	}

	query := make(map[string]string, len(r.URL.Query()))
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	p, err := h.svc.HandleCallback(r.Context(), paymentID, query)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodePaymentNotFound) {
			h.respondWithError(w, r, err)
			return
		}
		h.logger.Error("Gateway callback failed",
			ports.String("payment_id", paymentID),
			ports.Err(err),
		)
		http.Redirect(w, r, h.cfg.FailureURL+"/"+paymentID, http.StatusFound)
		return
	}

	target := h.cfg.FailureURL
	if p.Status == domain.PaymentStatusCompleted {
		target = h.cfg.SuccessURL
	}
	http.Redirect(w, r, target+"/"+paymentID, http.StatusFound)
}

// HandleWebhook is the gateway's server-to-server notification.
// POST /featured-listing/verify/{paymentId}
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := h.paymentIDParam(w, r)
	if !ok {
		return
	}

	payload, err := parseWebhookPayload(w, r)
	if err != nil {
		h.logger.Warn("Unreadable webhook body",
			ports.String("payment_id", paymentID),
			ports.String("remote_addr", r.RemoteAddr),
			ports.Err(err),
		)
		h.respondWithError(w, r, domain.WrapError(domain.ErrorCodeInvalidPayload, domain.ErrInvalidPayload.Message, err))
		return
	}

	p, err := h.svc.HandleWebhook(r.Context(), paymentID, payload)
	if err != nil {
		switch {
		case domain.IsWebhookRejection(err):
			h.logger.Warn("Webhook rejected",
				ports.String("payment_id", paymentID),
				ports.String("remote_addr", r.RemoteAddr),
				ports.Err(err),
			)
		case domain.IsDomainError(err, domain.ErrorCodePaymentNotFound):
		default:
			h.logger.Error("Webhook processing failed",
				ports.String("payment_id", paymentID),
				ports.Err(err),
			)
			respondWithJSON(w, http.StatusInternalServerError, errorResponse{
				Status:  statusError,
				Message: "Internal error",
			})
			return
		}
		h.respondWithError(w, r, err)
		return
	}

	// A failed payment is still a successfully processed notification
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":        statusSuccess,
		"paymentStatus": string(p.Status),
	})
}

// parseWebhookPayload accepts form-encoded or JSON bodies and flattens them to strings
func parseWebhookPayload(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	payload := map[string]string{}

	if mediaType == "application/json" {
		var raw map[string]interface{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		for k, v := range raw {
			switch val := v.(type) {
			case nil:
			case string:
				payload[k] = val
			case json.Number:
				payload[k] = val.String()
			case bool:
				payload[k] = fmt.Sprint(val)
			default:
				encoded, err := json.Marshal(val)
				if err != nil {
					return nil, err
				}
				payload[k] = string(encoded)
			}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				payload[k] = v[0]
			}
		}
	}

	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	return payload, nil
}
