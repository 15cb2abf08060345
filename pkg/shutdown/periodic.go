package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

// PeriodicWorker runs work immediately and then on every tick until stopped
type PeriodicWorker struct {
	name     string
	interval time.Duration
	logger   ports.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPeriodicWorker creates a worker; call Start to run it
func NewPeriodicWorker(name string, interval time.Duration, logger ports.Logger) *PeriodicWorker {
	return &PeriodicWorker{name: name, interval: interval, logger: logger}
}

// Start launches the loop. work must respect ctx cancellation.
func (w *PeriodicWorker) Start(ctx context.Context, work func(ctx context.Context)) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.logger.Info("Periodic worker started",
			ports.String("worker", w.name),
			ports.Duration("interval", w.interval),
		)
		work(ctx)
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Periodic worker stopped", ports.String("worker", w.name))
				return
			case <-ticker.C:
				work(ctx)
			}
		}
	}()
}

// Shutdown cancels the loop and waits for the current run to return
func (w *PeriodicWorker) Shutdown(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
