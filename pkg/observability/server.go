package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartMetricsServer serves /metrics, /health and /ready on port in the background
func StartMetricsServer(port int, healthChecker *HealthChecker, logger ports.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", LiveHandler)
	mux.HandleFunc("/ready", healthChecker.ReadyHandler())

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", ports.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", ports.Err(err))
		}
	}()

	return server
}
