package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shutdown_duration_seconds",
		Help:    "Total time taken to shutdown gracefully",
		Buckets: []float64{0.5, 1, 5, 10, 15, 30},
	})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutdown_errors_total",
		Help: "Total number of shutdown errors by component",
	}, []string{"component"})
)

// Func stops one component
type Func func(context.Context) error

type component struct {
	name string
	fn   Func
}

// Manager stops registered components in reverse registration order, so the
// HTTP servers drain before the database pool they depend on is closed.
type Manager struct {
	logger     ports.Logger
	timeout    time.Duration
	mu         sync.Mutex
	components []component
	once       sync.Once
}

// NewManager creates a shutdown manager with an overall deadline
func NewManager(logger ports.Logger, timeout time.Duration) *Manager {
	return &Manager{logger: logger, timeout: timeout}
}

// Register adds a component
func (m *Manager) Register(name string, fn Func) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, fn: fn})
}

// RegisterCloser registers anything with a Close method
func (m *Manager) RegisterCloser(name string, closer interface{ Close() error }) {
	m.Register(name, func(context.Context) error { return closer.Close() })
}

// RegisterNoErr registers a shutdown hook that cannot fail
func (m *Manager) RegisterNoErr(name string, fn func()) {
	m.Register(name, func(context.Context) error {
		fn()
		return nil
	})
}

// WaitForSignal blocks until SIGINT or SIGTERM, or until ctx is done, then shuts down
func (m *Manager) WaitForSignal(ctx context.Context) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		m.logger.Info("Received shutdown signal", ports.String("signal", sig.String()))
	case <-ctx.Done():
		m.logger.Info("Shutdown requested")
	}
	m.Shutdown()
}

// Shutdown runs every component once. Errors are logged and do not stop the
// remaining components.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		m.mu.Lock()
		components := append([]component(nil), m.components...)
		m.mu.Unlock()

		failed := 0
		for i := len(components) - 1; i >= 0; i-- {
			c := components[i]
			if err := c.fn(ctx); err != nil {
				failed++
				shutdownErrors.WithLabelValues(c.name).Inc()
				m.logger.Error("Component shutdown failed", ports.String("component", c.name), ports.Err(err))
				continue
			}
			m.logger.Debug("Component stopped", ports.String("component", c.name))
		}

		elapsed := time.Since(start)
		shutdownDuration.Observe(elapsed.Seconds())
		m.logger.Info("Shutdown complete",
			ports.Int("components", len(components)),
			ports.Int("failed", failed),
			ports.Duration("elapsed", elapsed),
		)
	})
}
