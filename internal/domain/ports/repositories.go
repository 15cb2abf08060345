package ports

import (
	"context"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain"
)

// Every repository method accepts an optional DBTX. A nil tx runs against the pool.

// PaymentRepository persists featured-listing payments
type PaymentRepository interface {
	Create(ctx context.Context, tx DBTX, payment *domain.Payment) error
	GetByID(ctx context.Context, tx DBTX, id string) (*domain.Payment, error)
	// GetByIDForUpdate locks the row until tx ends. tx must not be nil.
	GetByIDForUpdate(ctx context.Context, tx DBTX, id string) (*domain.Payment, error)
	GetByExternalID(ctx context.Context, tx DBTX, externalPaymentID string) (*domain.Payment, error)
	// Update writes status, gateway response, window and updated_at
	Update(ctx context.Context, tx DBTX, payment *domain.Payment) error
}

// PlanRepository reads featured-listing plans
type PlanRepository interface {
	GetActive(ctx context.Context, tx DBTX, id string) (*domain.PaymentPlan, error)
	ListActive(ctx context.Context, tx DBTX) ([]*domain.PaymentPlan, error)
	Upsert(ctx context.Context, tx DBTX, plan *domain.PaymentPlan) error
}

// FeaturedListingRepository persists featured windows
type FeaturedListingRepository interface {
	// LockListing serializes activations for one listing until tx ends
	LockListing(ctx context.Context, tx DBTX, listingID string) error
	DeactivateByListing(ctx context.Context, tx DBTX, listingID string) (int64, error)
	Upsert(ctx context.Context, tx DBTX, featured *domain.FeaturedListing) error
	GetByListing(ctx context.Context, tx DBTX, listingID string) (*domain.FeaturedListing, error)
	DeactivateByPayment(ctx context.Context, tx DBTX, paymentID string) (int64, error)
	DeactivateExpired(ctx context.Context, tx DBTX, now time.Time) (int64, error)
}

// ListingStore is the marketplace listing collaborator
type ListingStore interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

// GatewayConfigStore loads gateway configuration by provider name
type GatewayConfigStore interface {
	GetGatewayConfig(ctx context.Context, name string) (*domain.GatewayConfig, error)
}

// GatewayConfigWriter is used by administrative tooling
type GatewayConfigWriter interface {
	UpsertGatewayConfig(ctx context.Context, cfg *domain.GatewayConfig) error
}
