// Package seed loads plan and gateway fixtures into the database.
package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ncpwheels/featured-payments/internal/domain"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// Fixture is the seed file layout
type Fixture struct {
	Plans    []PlanFixture    `yaml:"plans"`
	Gateways []GatewayFixture `yaml:"gateways"`
}

// PlanFixture describes one featured plan. Price is a decimal string.
type PlanFixture struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Price        string `yaml:"price"`
	DurationDays int    `yaml:"duration_days"`
	Active       *bool  `yaml:"active"`
}

// GatewayFixture describes one provider config. Credential values may be
// secret:<path>#<key> references.
type GatewayFixture struct {
	Name        string            `yaml:"name"`
	Environment string            `yaml:"environment"`
	Active      bool              `yaml:"active"`
	Credentials map[string]string `yaml:"credentials"`
}

// Parse decodes and validates a fixture
func Parse(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	seen := map[string]bool{}
	for i, p := range f.Plans {
		if p.Name == "" {
			return fmt.Errorf("plans[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("plans[%d]: duplicate plan %q", i, p.Name)
		}
		seen[p.Name] = true

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("plan %q: invalid price %q", p.Name, p.Price)
		}
		if !price.IsPositive() {
			return fmt.Errorf("plan %q: price must be positive", p.Name)
		}
		if p.DurationDays <= 0 {
			return fmt.Errorf("plan %q: duration_days must be positive", p.Name)
		}
	}

	for i, g := range f.Gateways {
		switch g.Name {
		case domain.GatewayEasyPaisa, domain.GatewayBankAlfalah, domain.GatewayJazzCash, domain.GatewayUBL:
		default:
			return fmt.Errorf("gateways[%d]: unknown gateway %q", i, g.Name)
		}
		switch domain.Environment(g.Environment) {
		case domain.EnvironmentSandbox, domain.EnvironmentProduction:
		default:
			return fmt.Errorf("gateway %q: environment must be sandbox or production", g.Name)
		}
	}
	return nil
}

// PaymentPlans converts the plan fixtures to domain plans with fresh IDs. An existing
// plan with the same name keeps its ID on upsert.
func (f *Fixture) PaymentPlans() []*domain.PaymentPlan {
	plans := make([]*domain.PaymentPlan, 0, len(f.Plans))
	for _, p := range f.Plans {
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		plans = append(plans, &domain.PaymentPlan{
			ID:           uuid.NewString(),
			Name:         p.Name,
			Description:  p.Description,
			Price:        decimal.RequireFromString(p.Price),
			DurationDays: p.DurationDays,
			IsActive:     active,
		})
	}
	return plans
}

// GatewayConfigs converts the gateway fixtures
func (f *Fixture) GatewayConfigs() []*domain.GatewayConfig {
	configs := make([]*domain.GatewayConfig, 0, len(f.Gateways))
	for _, g := range f.Gateways {
		configs = append(configs, &domain.GatewayConfig{
			GatewayName: g.Name,
			Environment: domain.Environment(g.Environment),
			IsActive:    g.Active,
			Credentials: g.Credentials,
		})
	}
	return configs
}

// Apply upserts every plan and gateway config in the fixture
func Apply(ctx context.Context, f *Fixture, plans ports.PlanRepository, gateways ports.GatewayConfigWriter, logger ports.Logger) error {
	for _, plan := range f.PaymentPlans() {
		if err := plans.Upsert(ctx, nil, plan); err != nil {
			return err
		}
		logger.Info("Plan seeded",
			ports.String("plan_id", plan.ID),
			ports.String("name", plan.Name),
			ports.String("price", plan.Price.StringFixed(2)),
			ports.Int("duration_days", plan.DurationDays),
		)
	}

	for _, cfg := range f.GatewayConfigs() {
		if err := gateways.UpsertGatewayConfig(ctx, cfg); err != nil {
			return fmt.Errorf("seed gateway %s: %w", cfg.GatewayName, err)
		}
		logger.Info("Gateway config seeded",
			ports.String("gateway", cfg.GatewayName),
			ports.String("environment", string(cfg.Environment)),
			ports.Bool("active", cfg.IsActive),
		)
	}
	return nil
}
