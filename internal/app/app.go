package app

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/nfrund/typedbus/internal/catalog"
	"github.com/nfrund/typedbus/internal/config"
	"github.com/nfrund/typedbus/internal/hostbus"
	"github.com/nfrund/typedbus/internal/tracing"
)

// App holds the core services a command needs: the host bus, the channel
// catalog, tracing and the metrics registry. Services are built lazily on
// first use and torn down together by Shutdown.
type App struct {
	injector *do.RootScope
}

// New wires every service from cfg.
func New(cfg *config.Config, logger *slog.Logger) *App {
	i := do.New()

	do.ProvideValue(i, cfg)
	do.ProvideValue(i, logger)
	do.ProvideValue(i, catalog.Default())

	do.Provide(i, func(do.Injector) (*prometheus.Registry, error) {
		return prometheus.NewRegistry(), nil
	})

	do.Provide(i, func(i do.Injector) (*tracing.Tracing, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return tracing.Setup(context.Background(), tracing.Config{
			Enabled:     cfg.Tracing,
			ServiceName: cfg.ServiceName,
		})
	})

	do.Provide(i, newBus)

	return &App{injector: i}
}

func newBus(i do.Injector) (hostbus.Bus, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	tr, err := do.Invoke[*tracing.Tracing](i)
	if err != nil {
		return nil, err
	}

	opts := []hostbus.Option{
		hostbus.WithLogger(logger),
		hostbus.WithTracer(tr.Tracer),
	}
	if cfg.Metrics {
		opts = append(opts, hostbus.WithRegisterer(do.MustInvoke[*prometheus.Registry](i)))
	}

	switch cfg.Backend {
	case config.BackendWatermill:
		opts = append(opts,
			hostbus.WithOutputBuffer(cfg.WatermillBuffer),
			hostbus.WithWatermillDebug(cfg.WatermillDebug),
		)
		logger.Debug("Using watermill host bus", "buffer", cfg.WatermillBuffer)
		return hostbus.NewWatermillBus(opts...), nil
	default:
		logger.Debug("Using in-memory host bus")
		return hostbus.NewTable(opts...), nil
	}
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config {
	return do.MustInvoke[*config.Config](a.injector)
}

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger {
	return do.MustInvoke[*slog.Logger](a.injector)
}

// Bus returns the host bus selected by the configured backend.
func (a *App) Bus() (hostbus.Bus, error) {
	return do.Invoke[hostbus.Bus](a.injector)
}

// Catalog returns the channel catalog.
func (a *App) Catalog() *catalog.Manager {
	return do.MustInvoke[*catalog.Manager](a.injector)
}

// Tracing returns the tracer setup.
func (a *App) Tracing() (*tracing.Tracing, error) {
	return do.Invoke[*tracing.Tracing](a.injector)
}

// Registry returns the metrics registry the bus reports to when metrics
// are enabled.
func (a *App) Registry() *prometheus.Registry {
	return do.MustInvoke[*prometheus.Registry](a.injector)
}

// Shutdown closes the bus and flushes tracing.
func (a *App) Shutdown(ctx context.Context) error {
	report := a.injector.ShutdownWithContext(ctx)
	if report != nil && !report.Succeed {
		return report
	}
	return nil
}
