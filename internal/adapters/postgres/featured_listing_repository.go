package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// FeaturedListingRepository implements ports.FeaturedListingRepository
type FeaturedListingRepository struct {
	pool ports.DBTX
}

// NewFeaturedListingRepository creates a new featured listing repository
func NewFeaturedListingRepository(db ports.DBPort) *FeaturedListingRepository {
	return &FeaturedListingRepository{pool: db.GetDB()}
}

var _ ports.FeaturedListingRepository = (*FeaturedListingRepository)(nil)

// LockListing takes a transaction-scoped advisory lock keyed on the listing.
// Concurrent activations for the same listing queue behind it.
func (r *FeaturedListingRepository) LockListing(ctx context.Context, tx ports.DBTX, listingID string) error {
	if tx == nil {
		return fmt.Errorf("lock listing: transaction required")
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('featured_listing:' || $1))`, listingID); err != nil {
		return fmt.Errorf("lock listing %s: %w", listingID, err)
	}
	return nil
}

// DeactivateByListing switches off the listing's active window
func (r *FeaturedListingRepository) DeactivateByListing(ctx context.Context, tx ports.DBTX, listingID string) (int64, error) {
	tag, err := executor(r.pool, tx).Exec(ctx, `
		UPDATE featured_listings SET is_active = FALSE, updated_at = NOW()
		WHERE listing_id = $1 AND is_active`, listingID)
	if err != nil {
		return 0, fmt.Errorf("deactivate featured listing: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Upsert writes the listing's window. One row per listing.
func (r *FeaturedListingRepository) Upsert(ctx context.Context, tx ports.DBTX, f *domain.FeaturedListing) error {
	row := executor(r.pool, tx).QueryRow(ctx, `
		INSERT INTO featured_listings (listing_id, payment_id, start_date, end_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (listing_id) DO UPDATE
		SET payment_id = EXCLUDED.payment_id,
		    start_date = EXCLUDED.start_date,
		    end_date = EXCLUDED.end_date,
		    is_active = EXCLUDED.is_active,
		    updated_at = NOW()
		RETURNING created_at, updated_at`,
		f.ListingID, f.PaymentID, f.StartDate, f.EndDate, f.IsActive,
	)
	if err := row.Scan(&f.CreatedAt, &f.UpdatedAt); err != nil {
		return fmt.Errorf("upsert featured listing: %w", err)
	}
	return nil
}

// GetByListing returns the listing's featured row, active or not
func (r *FeaturedListingRepository) GetByListing(ctx context.Context, tx ports.DBTX, listingID string) (*domain.FeaturedListing, error) {
	var f domain.FeaturedListing
	err := executor(r.pool, tx).QueryRow(ctx, `
		SELECT listing_id, payment_id, start_date, end_date, is_active, created_at, updated_at
		FROM featured_listings WHERE listing_id = $1`, listingID).
		Scan(&f.ListingID, &f.PaymentID, &f.StartDate, &f.EndDate, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("get featured listing: %w", err)
	}
	return &f, nil
}

// DeactivateByPayment switches off the window bought by paymentID, if it is still the listing's window
func (r *FeaturedListingRepository) DeactivateByPayment(ctx context.Context, tx ports.DBTX, paymentID string) (int64, error) {
	tag, err := executor(r.pool, tx).Exec(ctx, `
		UPDATE featured_listings SET is_active = FALSE, updated_at = NOW()
		WHERE payment_id = $1 AND is_active`, paymentID)
	if err != nil {
		return 0, fmt.Errorf("deactivate featured listing by payment: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeactivateExpired switches off every active window that ended before now
func (r *FeaturedListingRepository) DeactivateExpired(ctx context.Context, tx ports.DBTX, now time.Time) (int64, error) {
	tag, err := executor(r.pool, tx).Exec(ctx, `
		UPDATE featured_listings SET is_active = FALSE, updated_at = NOW()
		WHERE is_active AND end_date <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired featured listings: %w", err)
	}
	return tag.RowsAffected(), nil
}
