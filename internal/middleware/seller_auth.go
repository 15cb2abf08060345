package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ncpwheels/featured-payments/internal/auth"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// TokenValidator validates a bearer token and returns the seller claims
type TokenValidator interface {
	ValidateToken(token string) (*auth.SellerClaims, error)
}

// RequireSeller rejects requests without a valid seller bearer token and puts
// the seller ID on the request context
func RequireSeller(validator TokenValidator, logger ports.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Seller token rejected",
					ports.String("path", r.URL.Path),
					ports.String("remote_addr", r.RemoteAddr),
					ports.Err(err),
				)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSeller(r.Context(), claims)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="featured-listing"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": "Authentication required",
	})
}
