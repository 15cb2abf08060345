package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

const planColumns = `id, name, description, price, duration_days, is_active, created_at, updated_at`

// PlanRepository implements ports.PlanRepository
type PlanRepository struct {
	pool ports.DBTX
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db ports.DBPort) *PlanRepository {
	return &PlanRepository{pool: db.GetDB()}
}

var _ ports.PlanRepository = (*PlanRepository)(nil)

// GetActive returns the plan if it exists and is purchasable
func (r *PlanRepository) GetActive(ctx context.Context, tx ports.DBTX, id string) (*domain.PaymentPlan, error) {
	row := executor(r.pool, tx).QueryRow(ctx,
		`SELECT `+planColumns+` FROM payment_plans WHERE id = $1 AND is_active`, id)
	plan, err := scanPlan(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("get active plan: %w", err)
	}
	return plan, nil
}

// ListActive returns purchasable plans, cheapest first
func (r *PlanRepository) ListActive(ctx context.Context, tx ports.DBTX) ([]*domain.PaymentPlan, error) {
	rows, err := executor(r.pool, tx).Query(ctx,
		`SELECT `+planColumns+` FROM payment_plans WHERE is_active ORDER BY price, duration_days`)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.PaymentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	return plans, nil
}

// Upsert inserts or updates a plan keyed by name
func (r *PlanRepository) Upsert(ctx context.Context, tx ports.DBTX, plan *domain.PaymentPlan) error {
	price, err := decimalToNumeric(plan.Price)
	if err != nil {
		return err
	}

	row := executor(r.pool, tx).QueryRow(ctx, `
		INSERT INTO payment_plans (id, name, description, price, duration_days, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    duration_days = EXCLUDED.duration_days,
		    is_active = EXCLUDED.is_active,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		plan.ID, plan.Name, plan.Description, price, plan.DurationDays, plan.IsActive,
	)
	if err := row.Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
		return fmt.Errorf("upsert plan %q: %w", plan.Name, err)
	}
	return nil
}

func scanPlan(row pgx.Row) (*domain.PaymentPlan, error) {
	var (
		plan  domain.PaymentPlan
		price pgtype.Numeric
	)
	if err := row.Scan(&plan.ID, &plan.Name, &plan.Description, &price,
		&plan.DurationDays, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if plan.Price, err = numericToDecimal(price); err != nil {
		return nil, err
	}
	return &plan, nil
}
