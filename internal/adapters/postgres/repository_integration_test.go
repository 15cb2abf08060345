package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ncpwheels/featured-payments/internal/adapters/postgres"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// setupTestDB starts a throwaway Postgres and applies the embedded migrations.
// Skipped with -short.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "featured_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Could not start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/featured_test?sslmode=disable"
	pool, err := postgres.Connect(ctx, postgres.DefaultConfig(dsn), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

type fixture struct {
	db       *postgres.DBExecutor
	payments *postgres.PaymentRepository
	plans    *postgres.PlanRepository
	featured *postgres.FeaturedListingRepository
	listings *postgres.ListingStore
	configs  *postgres.GatewayConfigRepository
	plan     *domain.PaymentPlan
}

func newFixture(t *testing.T) *fixture {
	pool := setupTestDB(t)
	db := postgres.NewDBExecutor(pool)

	f := &fixture{
		db:       db,
		payments: postgres.NewPaymentRepository(db),
		plans:    postgres.NewPlanRepository(db),
		featured: postgres.NewFeaturedListingRepository(db),
		listings: postgres.NewListingStore(db),
		configs:  postgres.NewGatewayConfigRepository(db),
	}

	f.plan = &domain.PaymentPlan{
		ID:           uuid.NewString(),
		Name:         "Premium Spotlight",
		Price:        decimal.NewFromInt(2500),
		DurationDays: 14,
		IsActive:     true,
	}
	require.NoError(t, f.plans.Upsert(context.Background(), nil, f.plan))

	_, err := pool.Exec(context.Background(),
		`INSERT INTO listings (id, owner_id, title) VALUES ('car-1', 'seller-1', 'Civic 2019'), ('car-2', 'seller-2', 'Corolla')`)
	require.NoError(t, err)
	return f
}

func (f *fixture) completedPayment(t *testing.T, listingID string) *domain.Payment {
	t.Helper()
	p := domain.NewPayment("seller-1", listingID, f.plan, domain.GatewayEasyPaisa, time.Now().UTC())
	require.NoError(t, f.payments.Create(context.Background(), nil, p))
	require.NoError(t, p.TransitionTo(domain.PaymentStatusCompleted, time.Now().UTC()))
	require.NoError(t, f.payments.Update(context.Background(), nil, p))
	return p
}

func TestPaymentRepository_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := domain.NewPayment("seller-1", "car-1", f.plan, domain.GatewayEasyPaisa, time.Now().UTC())
	p.RecordGatewayResponse("initiate", map[string]interface{}{"token": "sandbox_x"})
	require.NoError(t, f.payments.Create(ctx, nil, p))

	got, err := f.payments.GetByID(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ExternalPaymentID, got.ExternalPaymentID)
	assert.True(t, decimal.NewFromInt(2500).Equal(got.Amount))
	assert.Equal(t, 14, got.PlanDurationDays)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
	assert.Nil(t, got.ActiveWindowStart)
	assert.Contains(t, got.GatewayResponse, "initiate")

	byExternal, err := f.payments.GetByExternalID(ctx, nil, p.ExternalPaymentID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byExternal.ID)
}

func TestPaymentRepository_GetByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.payments.GetByID(context.Background(), nil, uuid.NewString())
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodePaymentNotFound))
}

func TestRepositories_MalformedIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payments.GetByID(ctx, nil, "not-a-uuid")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodePaymentNotFound), "got %v", err)

	_, err = f.plans.GetActive(ctx, nil, "basic")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodePlanNotFound), "got %v", err)
}

func TestPaymentRepository_DuplicateExternalID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := domain.NewPayment("seller-1", "car-1", f.plan, domain.GatewayUBL, time.Now().UTC())
	require.NoError(t, f.payments.Create(ctx, nil, first))

	second := domain.NewPayment("seller-1", "car-1", f.plan, domain.GatewayUBL, time.Now().UTC())
	second.ExternalPaymentID = first.ExternalPaymentID
	err := f.payments.Create(ctx, nil, second)
	assert.Error(t, err)
}

func TestPaymentRepository_UpdateWithinTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := domain.NewPayment("seller-1", "car-1", f.plan, domain.GatewayJazzCash, time.Now().UTC())
	require.NoError(t, f.payments.Create(ctx, nil, p))

	err := f.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := f.payments.GetByIDForUpdate(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if err := locked.TransitionTo(domain.PaymentStatusProcessing, time.Now().UTC()); err != nil {
			return err
		}
		return f.payments.Update(ctx, tx, locked)
	})
	require.NoError(t, err)

	got, err := f.payments.GetByID(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusProcessing, got.Status)
}

func TestPlanRepository_ListActiveAndUpsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := &domain.PaymentPlan{ID: uuid.NewString(), Name: "Retired", Price: decimal.NewFromInt(10), DurationDays: 1}
	require.NoError(t, f.plans.Upsert(ctx, nil, inactive))

	plans, err := f.plans.ListActive(ctx, nil)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "Premium Spotlight", plans[0].Name)

	_, err = f.plans.GetActive(ctx, nil, inactive.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodePlanNotFound))

	// same name keeps the original id
	update := &domain.PaymentPlan{ID: uuid.NewString(), Name: "Premium Spotlight", Price: decimal.NewFromInt(3000), DurationDays: 21, IsActive: true}
	require.NoError(t, f.plans.Upsert(ctx, nil, update))
	assert.Equal(t, f.plan.ID, update.ID)
}

func TestListingStore_GetListing(t *testing.T) {
	f := newFixture(t)

	l, err := f.listings.GetListing(context.Background(), "car-1")
	require.NoError(t, err)
	assert.True(t, l.IsOwnedBy("seller-1"))

	_, err = f.listings.GetListing(context.Background(), "car-404")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeListingNotFound))
}

func TestGatewayConfigRepository_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.configs.GetGatewayConfig(ctx, domain.GatewayUBL)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))

	cfg := &domain.GatewayConfig{
		GatewayName: domain.GatewayUBL,
		IsActive:    true,
		Environment: domain.EnvironmentProduction,
		Credentials: map[string]string{"merchant_id": "M1", "api_key": "secret:ubl#api_key"},
	}
	require.NoError(t, f.configs.UpsertGatewayConfig(ctx, cfg))
	assert.False(t, cfg.UpdatedAt.IsZero())

	got, err := f.configs.GetGatewayConfig(ctx, domain.GatewayUBL)
	require.NoError(t, err)
	assert.False(t, got.IsSandbox())
	assert.Equal(t, "secret:ubl#api_key", got.Credential("api_key"))
}

// activate mirrors what the activator does inside a payment transaction
func activate(ctx context.Context, f *fixture, tx pgx.Tx, p *domain.Payment) error {
	if err := f.featured.LockListing(ctx, tx, p.ListingID); err != nil {
		return err
	}
	if _, err := f.featured.DeactivateByListing(ctx, tx, p.ListingID); err != nil {
		return err
	}
	start, end := domain.FeaturedWindow(time.Now().UTC(), p.PlanDurationDays)
	return f.featured.Upsert(ctx, tx, &domain.FeaturedListing{
		ListingID: p.ListingID,
		PaymentID: p.ID,
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	})
}

func TestFeaturedListingRepository_ConcurrentActivationsKeepOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	payments := make([]*domain.Payment, workers)
	for i := range payments {
		payments[i] = f.completedPayment(t, "car-1")
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, p := range payments {
		wg.Add(1)
		go func(p *domain.Payment) {
			defer wg.Done()
			errs <- f.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
				return activate(ctx, f, tx, p)
			})
		}(p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var active int
	err := f.db.GetDB().QueryRow(ctx,
		`SELECT COUNT(*) FROM featured_listings WHERE listing_id = 'car-1' AND is_active`).Scan(&active)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestFeaturedListingRepository_DeactivateByPaymentAndExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.completedPayment(t, "car-1")
	require.NoError(t, f.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return activate(ctx, f, tx, p1)
	}))

	p2 := f.completedPayment(t, "car-2")
	require.NoError(t, f.featured.Upsert(ctx, nil, &domain.FeaturedListing{
		ListingID: "car-2",
		PaymentID: p2.ID,
		StartDate: time.Now().Add(-48 * time.Hour),
		EndDate:   time.Now().Add(-time.Hour),
		IsActive:  true,
	}))

	n, err := f.featured.DeactivateExpired(ctx, nil, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = f.featured.DeactivateByPayment(ctx, nil, p1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := f.featured.GetByListing(ctx, nil, "car-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, p1.ID, got.PaymentID)
}

func TestFeaturedListingRepository_LockListingRequiresTx(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.featured.LockListing(context.Background(), nil, "car-1"))
}
