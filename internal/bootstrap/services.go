package bootstrap

import (
	"context"

	"github.com/ncpwheels/featured-payments/internal/adapters/gateways/gatewayhttp"
	"github.com/ncpwheels/featured-payments/internal/adapters/postgres"
	"github.com/ncpwheels/featured-payments/internal/adapters/secrets"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/ncpwheels/featured-payments/internal/services/featured"
	"github.com/ncpwheels/featured-payments/internal/services/gateway"
	"github.com/ncpwheels/featured-payments/internal/services/payment"
	pkghttp "github.com/ncpwheels/featured-payments/pkg/http"
)

// Services is the wired domain layer
type Services struct {
	Payments  *payment.Service
	Registry  *gateway.Registry
	Activator *featured.Activator
}

// NewServices wires the gateway registry, activator and payment service on db
func (rt *Runtime) NewServices(ctx context.Context, db *postgres.DBExecutor, gatewayConfigs ports.GatewayConfigStore) (*Services, error) {
	secretManager, err := rt.NewSecretManager(ctx)
	if err != nil {
		return nil, err
	}

	gc := rt.Config.Gateway
	registry := gateway.NewRegistry(
		gatewayConfigs,
		pkghttp.NewHTTPClient(pkghttp.GatewayClientConfig(), gc.HTTPTimeout),
		rt.Logger,
		gateway.WithCredentialResolver(secrets.NewResolver(secretManager)),
		gateway.WithCircuitBreakerConfig(gatewayhttp.CircuitBreakerConfig{
			MaxFailures:         uint32(gc.BreakerMaxFailures),
			OpenTimeout:         gc.BreakerOpenTimeout,
			MaxRequestsHalfOpen: uint32(gc.BreakerHalfOpenMax),
		}),
	)

	activator := featured.NewActivator(postgres.NewFeaturedListingRepository(db), rt.Logger)
	payments := payment.NewService(
		db,
		postgres.NewPaymentRepository(db),
		postgres.NewPlanRepository(db),
		postgres.NewListingStore(db),
		registry,
		activator,
		rt.Logger,
	)

	return &Services{Payments: payments, Registry: registry, Activator: activator}, nil
}
