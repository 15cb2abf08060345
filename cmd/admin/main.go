package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ncpwheels/featured-payments/internal/adapters/cache"
	"github.com/ncpwheels/featured-payments/internal/adapters/postgres"
	"github.com/ncpwheels/featured-payments/internal/auth"
	"github.com/ncpwheels/featured-payments/internal/bootstrap"
	"github.com/ncpwheels/featured-payments/internal/domain"
)

// AdminCLI runs one operator action against the configured database
type AdminCLI struct {
	ctx      context.Context
	rt       *bootstrap.Runtime
	db       *postgres.DBExecutor
	gateways cache.GatewayConfigStore
}

func main() {
	var (
		action      = flag.String("action", "", "Action to perform")
		paymentID   = flag.String("payment", "", "Payment ID")
		reason      = flag.String("reason", "", "Refund reason")
		gatewayName = flag.String("gateway", "", "Gateway name")
		active      = flag.Bool("active", true, "Gateway activation flag for set-gateway")
		environment = flag.String("env", "", "Gateway environment for set-gateway: sandbox or production")
		credsFile   = flag.String("credentials", "", "JSON file with gateway credentials for set-gateway")
		sellerID    = flag.String("seller", "", "Seller ID for issue-token")
		email       = flag.String("email", "", "Seller email for issue-token")
	)
	flag.Parse()

	if *action == "" {
		fmt.Println("Usage: admin -action=<action> [options]")
		fmt.Println("Actions:")
		fmt.Println("  show-payment  -payment=ID              - Print a payment")
		fmt.Println("  verify        -payment=ID              - Poll the gateway and settle the payment")
		fmt.Println("  refund        -payment=ID -reason=TEXT - Refund a completed payment")
		fmt.Println("  set-gateway   -gateway=NAME [-active] [-env] [-credentials=FILE]")
		fmt.Println("  list-plans                             - List active plans")
		fmt.Println("  issue-token   -seller=ID [-email]      - Issue a seller bearer token")
		os.Exit(1)
	}

	rt, err := bootstrap.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		os.Exit(1)
	}
	defer rt.Zap.Sync()

	if *action == "issue-token" {
		issueToken(rt, *sellerID, *email)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := rt.OpenDatabase(ctx)
	if err != nil {
		rt.Zap.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	db := postgres.NewDBExecutor(pool)
	gateways, redisClient := rt.GatewayConfigs(ctx, db)
	if redisClient != nil {
		defer redisClient.Close()
	}

	cli := &AdminCLI{ctx: ctx, rt: rt, db: db, gateways: gateways}

	switch *action {
	case "show-payment":
		err = cli.showPayment(*paymentID)
	case "verify":
		err = cli.verify(*paymentID)
	case "refund":
		err = cli.refund(*paymentID, *reason)
	case "set-gateway":
		err = cli.setGateway(*gatewayName, *active, *environment, *credsFile)
	case "list-plans":
		err = cli.listPlans()
	default:
		err = fmt.Errorf("unknown action: %s", *action)
	}

	if err != nil {
		rt.Zap.Error("Admin action failed", zap.String("action", *action), zap.Error(err))
		pool.Close()
		os.Exit(1)
	}
}

func (cli *AdminCLI) showPayment(paymentID string) error {
	if paymentID == "" {
		return fmt.Errorf("-payment is required")
	}
	p, err := postgres.NewPaymentRepository(cli.db).GetByID(cli.ctx, nil, paymentID)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func (cli *AdminCLI) verify(paymentID string) error {
	if paymentID == "" {
		return fmt.Errorf("-payment is required")
	}
	services, err := cli.rt.NewServices(cli.ctx, cli.db, cli.gateways)
	if err != nil {
		return err
	}
	p, err := services.Payments.VerifyPaymentStatus(cli.ctx, paymentID)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func (cli *AdminCLI) refund(paymentID, reason string) error {
	if paymentID == "" || strings.TrimSpace(reason) == "" {
		return fmt.Errorf("-payment and -reason are required")
	}
	services, err := cli.rt.NewServices(cli.ctx, cli.db, cli.gateways)
	if err != nil {
		return err
	}
	p, err := services.Payments.RefundPayment(cli.ctx, paymentID, reason)
	if err != nil {
		return err
	}
	fmt.Printf("Payment %s refunded (%s %s)\n", p.ID, p.Amount.StringFixed(2), p.Currency)
	return nil
}

// setGateway updates a provider's row. Flags left empty keep the stored value.
func (cli *AdminCLI) setGateway(name string, active bool, environment, credsFile string) error {
	if name == "" {
		return fmt.Errorf("-gateway is required")
	}

	cfg, err := cli.gateways.GetGatewayConfig(cli.ctx, name)
	if err != nil && !domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured) {
		return err
	}
	if cfg == nil {
		cfg = &domain.GatewayConfig{
			GatewayName: name,
			Environment: domain.EnvironmentSandbox,
			Credentials: map[string]string{},
		}
	}

	cfg.IsActive = active
	if environment != "" {
		switch domain.Environment(environment) {
		case domain.EnvironmentSandbox, domain.EnvironmentProduction:
			cfg.Environment = domain.Environment(environment)
		default:
			return fmt.Errorf("-env must be sandbox or production")
		}
	}

	if credsFile != "" {
		raw, err := os.ReadFile(credsFile)
		if err != nil {
			return err
		}
		creds := map[string]string{}
		if err := json.Unmarshal(raw, &creds); err != nil {
			return fmt.Errorf("parse %s: %w", credsFile, err)
		}
		cfg.Credentials = creds
	}

	if err := cli.gateways.UpsertGatewayConfig(cli.ctx, cfg); err != nil {
		return err
	}
	fmt.Printf("Gateway %s saved: active=%t environment=%s credentials=%d keys\n",
		cfg.GatewayName, cfg.IsActive, cfg.Environment, len(cfg.Credentials))
	return nil
}

func (cli *AdminCLI) listPlans() error {
	plans, err := postgres.NewPlanRepository(cli.db).ListActive(cli.ctx, nil)
	if err != nil {
		return err
	}
	for _, p := range plans {
		fmt.Printf("%s  %-20s %10s PKR  %3d days\n", p.ID, p.Name, p.Price.StringFixed(2), p.DurationDays)
	}
	return nil
}

func issueToken(rt *bootstrap.Runtime, sellerID, email string) {
	if sellerID == "" {
		fmt.Fprintln(os.Stderr, "admin: -seller is required")
		os.Exit(1)
	}
	a := rt.Config.Auth
	jm, err := auth.NewJWTManager(a.JWTSecret, a.Issuer, a.TokenTTL)
	if err != nil {
		rt.Zap.Fatal("Failed to initialize JWT manager", zap.Error(err))
	}
	token, err := jm.GenerateToken(sellerID, email)
	if err != nil {
		rt.Zap.Fatal("Failed to issue token", zap.Error(err))
	}
	fmt.Println(token)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
