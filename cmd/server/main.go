package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ncpwheels/featured-payments/internal/adapters/postgres"
	"github.com/ncpwheels/featured-payments/internal/auth"
	"github.com/ncpwheels/featured-payments/internal/bootstrap"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	featuredHandler "github.com/ncpwheels/featured-payments/internal/handlers/featured"
	"github.com/ncpwheels/featured-payments/internal/middleware"
	pkgmw "github.com/ncpwheels/featured-payments/pkg/middleware"
	"github.com/ncpwheels/featured-payments/pkg/observability"
	"github.com/ncpwheels/featured-payments/pkg/shutdown"
)

func main() {
	rt, err := bootstrap.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "featured-payments:", err)
		os.Exit(1)
	}
	defer rt.Zap.Sync()

	cfg := rt.Config
	logger := rt.Logger
	logger.Info("Starting featured payments service", ports.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdowns := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)

	pool, err := rt.OpenDatabase(ctx)
	if err != nil {
		rt.Zap.Fatal("Failed to connect to database", zap.Error(err))
	}
	shutdowns.RegisterNoErr("database", pool.Close)
	postgres.StartPoolMonitoring(ctx, pool, 30*time.Second, rt.Zap)

	db := postgres.NewDBExecutor(pool)

	gatewayConfigs, redisClient := rt.GatewayConfigs(ctx, db)
	if redisClient != nil {
		shutdowns.RegisterCloser("redis", redisClient)
	}

	services, err := rt.NewServices(ctx, db, gatewayConfigs)
	if err != nil {
		rt.Zap.Fatal("Failed to initialize services", zap.Error(err))
	}

	jwtManager, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		rt.Zap.Fatal("Failed to initialize JWT manager", zap.Error(err))
	}

	rateLimiter := pkgmw.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	shutdowns.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)

	handler := featuredHandler.NewHandler(services.Payments, featuredHandler.Config{
		PublicBaseURL: cfg.Server.PublicBaseURL,
		SuccessURL:    cfg.Server.SuccessURL,
		FailureURL:    cfg.Server.FailureURL,
	}, logger)

	realIP, err := middleware.TrustedRealIP(cfg.Server.TrustedProxyCIDRs())
	if err != nil {
		rt.Zap.Fatal("Invalid trusted proxy list", zap.Error(err))
	}

	router := chi.NewRouter()
	router.Use(realIP)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))
	router.Use(observability.HTTPMetricsMiddleware)
	router.Mount("/featured-listing", handler.Routes(
		middleware.RequireSeller(jwtManager, logger),
		rateLimiter.Middleware,
	))

	healthChecker := observability.NewHealthChecker(3 * time.Second)
	healthChecker.Register("database", true, db.HealthCheck)
	if redisClient != nil {
		healthChecker.Register("redis", false, redisClient.Ping)
	}
	metricsServer := observability.StartMetricsServer(cfg.Metrics.Port, healthChecker, logger)
	shutdowns.Register("metrics_server", metricsServer.Shutdown)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	shutdowns.Register("http_server", httpServer.Shutdown)

	go func() {
		logger.Info("HTTP server listening",
			ports.Int("port", cfg.Server.Port),
			ports.String("public_base_url", cfg.Server.PublicBaseURL),
			ports.Any("gateways", services.Registry.Supported()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", ports.Err(err))
			cancel()
		}
	}()

	shutdowns.WaitForSignal(ctx)
}
