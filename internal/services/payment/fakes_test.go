package payment_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// memoryDB serializes transactions, which stands in for the payment row lock
type memoryDB struct {
	mu  sync.Mutex
	txs int
}

func (m *memoryDB) GetDB() *pgxpool.Pool { return nil }

func (m *memoryDB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs++
	return fn(ctx, nil)
}

func (m *memoryDB) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return m.WithTransaction(ctx, fn)
}

type memoryPayments struct {
	mu   sync.Mutex
	rows map[string]domain.Payment
}

func newMemoryPayments() *memoryPayments {
	return &memoryPayments{rows: make(map[string]domain.Payment)}
}

func clonePayment(p domain.Payment) *domain.Payment {
	resp := make(map[string]interface{}, len(p.GatewayResponse))
	for k, v := range p.GatewayResponse {
		resp[k] = v
	}
	p.GatewayResponse = resp
	return &p
}

func (m *memoryPayments) Create(ctx context.Context, tx ports.DBTX, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = *clonePayment(*p)
	return nil
}

func (m *memoryPayments) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (m *memoryPayments) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id string) (*domain.Payment, error) {
	return m.GetByID(ctx, tx, id)
}

func (m *memoryPayments) GetByExternalID(ctx context.Context, tx ports.DBTX, externalID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.ExternalPaymentID == externalID {
			return clonePayment(p), nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *memoryPayments) Update(ctx context.Context, tx ports.DBTX, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return domain.ErrPaymentNotFound
	}
	m.rows[p.ID] = *clonePayment(*p)
	return nil
}

func (m *memoryPayments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// only returns the single stored payment
func (m *memoryPayments) only() *domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		return clonePayment(p)
	}
	return nil
}

type memoryPlans struct {
	plans map[string]*domain.PaymentPlan
}

func (m *memoryPlans) GetActive(ctx context.Context, tx ports.DBTX, id string) (*domain.PaymentPlan, error) {
	p, ok := m.plans[id]
	if !ok || !p.IsActive {
		return nil, domain.ErrPlanNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memoryPlans) ListActive(ctx context.Context, tx ports.DBTX) ([]*domain.PaymentPlan, error) {
	var out []*domain.PaymentPlan
	for _, p := range m.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPlans) Upsert(ctx context.Context, tx ports.DBTX, plan *domain.PaymentPlan) error {
	m.plans[plan.ID] = plan
	return nil
}

type memoryListings map[string]*domain.Listing

func (m memoryListings) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l, ok := m[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return l, nil
}

type memoryFeatured struct {
	mu      sync.Mutex
	rows    map[string]domain.FeaturedListing
	upserts int
}

func newMemoryFeatured() *memoryFeatured {
	return &memoryFeatured{rows: make(map[string]domain.FeaturedListing)}
}

func (m *memoryFeatured) LockListing(ctx context.Context, tx ports.DBTX, listingID string) error {
	return nil
}

func (m *memoryFeatured) DeactivateByListing(ctx context.Context, tx ports.DBTX, listingID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[listingID]
	if !ok || !row.IsActive {
		return 0, nil
	}
	row.IsActive = false
	m.rows[listingID] = row
	return 1, nil
}

func (m *memoryFeatured) Upsert(ctx context.Context, tx ports.DBTX, f *domain.FeaturedListing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.rows[f.ListingID] = *f
	return nil
}

func (m *memoryFeatured) GetByListing(ctx context.Context, tx ports.DBTX, listingID string) (*domain.FeaturedListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[listingID]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &row, nil
}

func (m *memoryFeatured) DeactivateByPayment(ctx context.Context, tx ports.DBTX, paymentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, row := range m.rows {
		if row.PaymentID == paymentID && row.IsActive {
			row.IsActive = false
			m.rows[id] = row
			n++
		}
	}
	return n, nil
}

func (m *memoryFeatured) DeactivateExpired(ctx context.Context, tx ports.DBTX, now time.Time) (int64, error) {
	return 0, nil
}

func (m *memoryFeatured) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// staticGateways resolves names from a fixed table
type staticGateways map[string]ports.GatewayAdapter

func (g staticGateways) Resolve(ctx context.Context, name string) (ports.GatewayAdapter, error) {
	a, ok := g[name]
	if !ok {
		return nil, domain.ErrGatewayNotConfigured
	}
	return a, nil
}

// noRefund hides the Refund method of the wrapped adapter
type noRefund struct {
	ports.GatewayAdapter
}
