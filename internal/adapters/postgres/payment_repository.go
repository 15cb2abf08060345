package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

const paymentColumns = `id, seller_id, listing_id, plan_id, plan_duration_days, gateway_name,
	external_payment_id, amount, currency, status, gateway_response,
	active_window_start, active_window_end, created_at, updated_at`

// PaymentRepository implements ports.PaymentRepository
type PaymentRepository struct {
	pool ports.DBTX
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db ports.DBPort) *PaymentRepository {
	return &PaymentRepository{pool: db.GetDB()}
}

var _ ports.PaymentRepository = (*PaymentRepository)(nil)

// Create inserts a new payment
func (r *PaymentRepository) Create(ctx context.Context, tx ports.DBTX, p *domain.Payment) error {
	amount, err := decimalToNumeric(p.Amount)
	if err != nil {
		return err
	}
	response, err := marshalJSONB(p.GatewayResponse)
	if err != nil {
		return err
	}

	_, err = executor(r.pool, tx).Exec(ctx, `
		INSERT INTO featured_listing_payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.SellerID, p.ListingID, p.PlanID, p.PlanDurationDays, p.GatewayName,
		p.ExternalPaymentID, amount, p.Currency, string(p.Status), response,
		nullTime(p.ActiveWindowStart), nullTime(p.ActiveWindowEnd), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrorCodeDatabaseError, "Duplicate payment reference", err).
				WithDetail("external_payment_id", p.ExternalPaymentID)
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetByID loads a payment
func (r *PaymentRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Payment, error) {
	row := executor(r.pool, tx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM featured_listing_payments WHERE id = $1`, id)
	return scanPayment(row, "get payment by id")
}

// GetByIDForUpdate loads and row-locks a payment for the rest of tx
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id string) (*domain.Payment, error) {
	if tx == nil {
		return nil, fmt.Errorf("get payment for update: transaction required")
	}
	row := tx.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM featured_listing_payments WHERE id = $1 FOR UPDATE`, id)
	return scanPayment(row, "get payment for update")
}

// GetByExternalID loads a payment by its gateway order reference
func (r *PaymentRepository) GetByExternalID(ctx context.Context, tx ports.DBTX, externalPaymentID string) (*domain.Payment, error) {
	row := executor(r.pool, tx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM featured_listing_payments WHERE external_payment_id = $1`, externalPaymentID)
	return scanPayment(row, "get payment by external id")
}

// Update writes the mutable columns of a payment
func (r *PaymentRepository) Update(ctx context.Context, tx ports.DBTX, p *domain.Payment) error {
	response, err := marshalJSONB(p.GatewayResponse)
	if err != nil {
		return err
	}

	tag, err := executor(r.pool, tx).Exec(ctx, `
		UPDATE featured_listing_payments
		SET status = $2,
		    gateway_response = $3,
		    active_window_start = $4,
		    active_window_end = $5,
		    updated_at = $6
		WHERE id = $1`,
		p.ID, string(p.Status), response,
		nullTime(p.ActiveWindowStart), nullTime(p.ActiveWindowEnd), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func scanPayment(row pgx.Row, op string) (*domain.Payment, error) {
	var (
		p           domain.Payment
		status      string
		amount      pgtype.Numeric
		response    []byte
		windowStart pgtype.Timestamptz
		windowEnd   pgtype.Timestamptz
	)

	err := row.Scan(
		&p.ID, &p.SellerID, &p.ListingID, &p.PlanID, &p.PlanDurationDays, &p.GatewayName,
		&p.ExternalPaymentID, &amount, &p.Currency, &status, &response,
		&windowStart, &windowEnd, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.Status = domain.PaymentStatus(status)
	p.ActiveWindowStart = timePtr(windowStart)
	p.ActiveWindowEnd = timePtr(windowEnd)

	if p.Amount, err = numericToDecimal(amount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.GatewayResponse = map[string]interface{}{}
	if len(response) > 0 {
		if err := json.Unmarshal(response, &p.GatewayResponse); err != nil {
			return nil, fmt.Errorf("%s: unmarshal gateway response: %w", op, err)
		}
	}
	return &p, nil
}
