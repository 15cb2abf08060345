package middleware

import (
	"net/http"
)

// SecurityHeaders sets response headers for a JSON and redirect API. HSTS is
// omitted in development so plain-HTTP local testing keeps working.
func SecurityHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	csp := "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"
	if isDevelopment {
		csp = "default-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Content-Security-Policy", csp)
			// Gateway return URLs carry payment IDs
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			if !isDevelopment {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
