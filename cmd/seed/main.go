package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ncpwheels/featured-payments/internal/adapters/postgres"
	"github.com/ncpwheels/featured-payments/internal/bootstrap"
	"github.com/ncpwheels/featured-payments/internal/seed"
)

func main() {
	file := flag.String("file", "", "seed fixture YAML (defaults to the built-in plans and sandbox gateways)")
	flag.Parse()

	var src io.Reader = bytes.NewReader(seed.Default)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			fmt.Fprintln(os.Stderr, "seed:", err)
			os.Exit(1)
		}
		defer f.Close()
		src = f
	}

	fixture, err := seed.Parse(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}

	rt, err := bootstrap.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
	defer rt.Zap.Sync()

	ctx := context.Background()
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

	if err := seed.Apply(ctx, fixture, postgres.NewPlanRepository(db), gateways, rt.Logger); err != nil {
		rt.Zap.Error("Seeding failed", zap.Error(err))
		pool.Close()
		os.Exit(1)
	}
	rt.Zap.Info("Seeding finished",
		zap.Int("plans", len(fixture.Plans)),
		zap.Int("gateways", len(fixture.Gateways)),
	)
}
