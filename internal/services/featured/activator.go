// Package featured owns the featured windows bought by completed payments.
package featured

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/ncpwheels/featured-payments/pkg/observability"
)

// Activator grants, revokes and expires featured windows
type Activator struct {
	repo   ports.FeaturedListingRepository
	logger ports.Logger
	now    func() time.Time
}

// NewActivator creates an activator
func NewActivator(repo ports.FeaturedListingRepository, logger ports.Logger) *Activator {
	return &Activator{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source
func (a *Activator) WithClock(now func() time.Time) *Activator {
	a.now = now
	return a
}

// Activate opens the featured window for a completed payment inside tx.
// It reports false without touching anything when the payment already carries
// a window. The caller must hold the payment row lock in the same tx.
func (a *Activator) Activate(ctx context.Context, tx ports.DBTX, p *domain.Payment) (bool, error) {
	if p.IsActivated() {
		return false, nil
	}
	if p.Status != domain.PaymentStatusCompleted {
		return false, domain.WrapError(domain.ErrorCodeInvalidTransition, "Only completed payments can be activated",
			fmt.Errorf("payment %s is %s", p.ID, p.Status))
	}

	if err := a.repo.LockListing(ctx, tx, p.ListingID); err != nil {
		return false, err
	}

	replaced, err := a.repo.DeactivateByListing(ctx, tx, p.ListingID)
	if err != nil {
		return false, err
	}

	start, end := domain.FeaturedWindow(a.now(), p.PlanDurationDays)
	if err := a.repo.Upsert(ctx, tx, &domain.FeaturedListing{
		ListingID: p.ListingID,
		PaymentID: p.ID,
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	}); err != nil {
		return false, err
	}

	p.ActiveWindowStart = &start
	p.ActiveWindowEnd = &end

	observability.RecordFeaturedActivation(strconv.Itoa(p.PlanDurationDays))
	a.logger.Info("Featured listing activated",
		ports.String("payment_id", p.ID),
		ports.String("listing_id", p.ListingID),
		ports.Int("duration_days", p.PlanDurationDays),
		ports.Bool("replaced_window", replaced > 0),
	)
	return true, nil
}

// DeactivateForPayment ends the window bought by a refunded payment
func (a *Activator) DeactivateForPayment(ctx context.Context, tx ports.DBTX, p *domain.Payment) error {
	if err := a.repo.LockListing(ctx, tx, p.ListingID); err != nil {
		return err
	}
	n, err := a.repo.DeactivateByPayment(ctx, tx, p.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		a.logger.Info("Featured listing deactivated",
			ports.String("payment_id", p.ID),
			ports.String("listing_id", p.ListingID),
		)
	}
	return nil
}

// DeactivateExpired switches off every window whose end date has passed
func (a *Activator) DeactivateExpired(ctx context.Context) (int64, error) {
	n, err := a.repo.DeactivateExpired(ctx, nil, a.now())
	if err != nil {
		return 0, err
	}
	observability.RecordFeaturedExpired(n)
	a.logger.Info("Expired featured listings deactivated", ports.Int("count", int(n)))
	return n, nil
}
