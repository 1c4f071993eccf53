package providers

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/tracing"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Shutterbox",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"library_path", cfg.Library.BasePath,
		"store", cfg.Store.Backend,
	)

	return log, nil
}

// TracingHandle flushes the tracer provider on shutdown.
type TracingHandle struct {
	shutdown tracing.ShutdownFunc
}

// Shutdown implements do.Shutdownable.
func (h *TracingHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.shutdown(ctx)
}

// ProvideTracing installs the OpenTelemetry tracer provider.
func ProvideTracing(i do.Injector) (*TracingHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	shutdown, err := tracing.Init(context.Background(), cfg.Tracing, log.Logger)
	if err != nil {
		return nil, err
	}
	return &TracingHandle{shutdown: shutdown}, nil
}

// ProvideMetrics provides Prometheus metrics on a private registry that
// also carries the Go runtime and process collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg)
}
