package postgres

import (
	"context"
	"fmt"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// ListingStore reads ownership from the marketplace listings table
type ListingStore struct {
	pool ports.DBTX
}

// NewListingStore creates a listing store
func NewListingStore(db ports.DBPort) *ListingStore {
	return &ListingStore{pool: db.GetDB()}
}

var _ ports.ListingStore = (*ListingStore)(nil)

// GetListing returns ListingNotFound when the listing does not exist
func (s *ListingStore) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	err := s.pool.QueryRow(ctx, `SELECT id, owner_id FROM listings WHERE id = $1`, id).Scan(&l.ID, &l.OwnerID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &l, nil
}
