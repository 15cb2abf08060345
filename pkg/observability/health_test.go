package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker_Check(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		database   CheckFunc
		redis      CheckFunc
		wantStatus string
		wantHTTP   int
	}{
		{"all healthy", ok, ok, "healthy", http.StatusOK},
		{"cache down", ok, down, "degraded", http.StatusOK},
		{"database down", down, ok, "unhealthy", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(time.Second)
			h.Register("database", true, tt.database)
			h.Register("redis", false, tt.redis)

			status := h.Check(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Len(t, status.Checks, 2)

			rec := httptest.NewRecorder()
			h.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantHTTP, rec.Code)
		})
	}
}

func TestHealthChecker_CheckTimesOut(t *testing.T) {
	h := NewHealthChecker(20 * time.Millisecond)
	h.Register("database", true, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := h.Check(context.Background())
	assert.Equal(t, "unhealthy", status.Status)
	assert.Contains(t, status.Checks["database"], "deadline exceeded")
}
