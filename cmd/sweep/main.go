package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ncpwheels/featured-payments/internal/adapters/postgres"
	"github.com/ncpwheels/featured-payments/internal/bootstrap"
	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/ncpwheels/featured-payments/internal/services/featured"
	"github.com/ncpwheels/featured-payments/pkg/shutdown"
)

func main() {
	every := flag.Duration("every", 0, "repeat the sweep at this interval until interrupted (0 runs once)")
	flag.Parse()

	rt, err := bootstrap.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sweep:", err)
		os.Exit(1)
	}
	defer rt.Zap.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := rt.OpenDatabase(ctx)
	if err != nil {
		rt.Zap.Fatal("Failed to connect to database", zap.Error(err))
	}

	db := postgres.NewDBExecutor(pool)
	activator := featured.NewActivator(postgres.NewFeaturedListingRepository(db), rt.Logger)

	sweep := func(ctx context.Context) error {
		n, err := activator.DeactivateExpired(ctx)
		if err != nil {
			rt.Logger.Error("Expiry sweep failed", ports.Err(err))
			return err
		}
		rt.Logger.Info("Expiry sweep finished", ports.Int("deactivated", int(n)))
		return nil
	}

	if *every <= 0 {
		err := sweep(ctx)
		pool.Close()
		if err != nil {
			os.Exit(1)
		}
		return
	}

	shutdowns := shutdown.NewManager(rt.Logger, 30*time.Second)
	shutdowns.RegisterNoErr("database", pool.Close)

	worker := shutdown.NewPeriodicWorker("featured_expiry_sweep", *every, rt.Logger)
	worker.Start(ctx, func(ctx context.Context) { _ = sweep(ctx) })
	shutdowns.Register("sweep_worker", worker.Shutdown)

	shutdowns.WaitForSignal(ctx)
}
