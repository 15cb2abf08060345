package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() *PaymentPlan {
	return &PaymentPlan{
		ID:           "plan-premium",
		Name:         "Premium Spotlight",
		Price:        decimal.NewFromInt(2500),
		DurationDays: 14,
		IsActive:     true,
	}
}

func TestNewPayment_SnapshotsPlan(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	plan := testPlan()

	p := NewPayment("seller-1", "car-1", plan, GatewayEasyPaisa, now)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, PaymentStatusPending, p.Status)
	assert.Equal(t, CurrencyPKR, p.Currency)
	assert.Equal(t, 14, p.PlanDurationDays)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, now, p.CreatedAt)
	assert.False(t, p.IsActivated())
	assert.True(t, p.IsOwnedBy("seller-1"))
	assert.False(t, p.IsOwnedBy("seller-2"))

	plan.Price = decimal.NewFromInt(9999)
	plan.DurationDays = 1
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, 14, p.PlanDurationDays)
}

func TestNewExternalPaymentID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^FL-[0-9a-f]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewExternalPaymentID()
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentStatusPending, PaymentStatusProcessing, true},
		{PaymentStatusPending, PaymentStatusCompleted, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusProcessing, PaymentStatusCompleted, true},
		{PaymentStatusProcessing, PaymentStatusFailed, true},
		{PaymentStatusProcessing, PaymentStatusPending, false},
		{PaymentStatusCompleted, PaymentStatusRefunded, true},
		{PaymentStatusCompleted, PaymentStatusFailed, false},
		{PaymentStatusCompleted, PaymentStatusCompleted, false},
		{PaymentStatusFailed, PaymentStatusCompleted, false},
		{PaymentStatusFailed, PaymentStatusPending, false},
		{PaymentStatusRefunded, PaymentStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentStatus_IsSettled(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsSettled())
	assert.False(t, PaymentStatusProcessing.IsSettled())
	assert.True(t, PaymentStatusCompleted.IsSettled())
	assert.True(t, PaymentStatusFailed.IsSettled())
	assert.True(t, PaymentStatusRefunded.IsSettled())
}

func TestPaymentStatus_IsValid(t *testing.T) {
	assert.True(t, PaymentStatusProcessing.IsValid())
	assert.False(t, PaymentStatus("cancelled").IsValid())
	assert.False(t, PaymentStatus("").IsValid())
}

func TestPayment_TransitionTo(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := created.Add(time.Minute)
	p := NewPayment("seller-1", "car-1", testPlan(), GatewayUBL, created)

	require.NoError(t, p.TransitionTo(PaymentStatusProcessing, later))
	assert.Equal(t, PaymentStatusProcessing, p.Status)
	assert.Equal(t, later, p.UpdatedAt)

	require.NoError(t, p.TransitionTo(PaymentStatusFailed, later))

	err := p.TransitionTo(PaymentStatusCompleted, later.Add(time.Minute))
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrorCodeInvalidTransition))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PaymentStatusFailed, p.Status)
	assert.Equal(t, later, p.UpdatedAt)
}

func TestPayment_RecordGatewayResponse(t *testing.T) {
	p := &Payment{}
	p.RecordGatewayResponse("webhook", map[string]interface{}{"status": "PAID"})
	p.RecordGatewayResponse("callback", map[string]interface{}{"responseCode": "0000"})

	assert.Len(t, p.GatewayResponse, 2)
	assert.Equal(t, map[string]interface{}{"status": "PAID"}, p.GatewayResponse["webhook"])
}

func TestFeaturedWindow(t *testing.T) {
	start := time.Date(2025, 2, 20, 12, 30, 0, 0, time.UTC)
	from, until := FeaturedWindow(start, 14)

	assert.Equal(t, start, from)
	assert.Equal(t, time.Date(2025, 3, 6, 12, 30, 0, 0, time.UTC), until)
}

func TestListing_IsOwnedBy(t *testing.T) {
	l := &Listing{ID: "car-1", OwnerID: "seller-1"}
	assert.True(t, l.IsOwnedBy("seller-1"))
	assert.False(t, l.IsOwnedBy("seller-2"))
	assert.False(t, (&Listing{ID: "car-2"}).IsOwnedBy(""))
}
