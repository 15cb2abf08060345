package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPlan is a purchasable featured-listing package
type PaymentPlan struct {
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days"`
	IsActive     bool            `json:"is_active"`
}

// FeaturedListing is the promoted window of a single listing. There is at most
// one row per listing.
type FeaturedListing struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ListingID string    `json:"listing_id"`
	PaymentID string    `json:"payment_id"`
	IsActive  bool      `json:"is_active"`
}

// FeaturedWindow computes the active window for a plan duration starting at start
func FeaturedWindow(start time.Time, durationDays int) (time.Time, time.Time) {
	return start, start.AddDate(0, 0, durationDays)
}

// Listing is the marketplace's view of a car listing, read for ownership checks
type Listing struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
}

// IsOwnedBy reports whether sellerID owns the listing
func (l *Listing) IsOwnedBy(sellerID string) bool {
	return l.OwnerID != "" && l.OwnerID == sellerID
}
