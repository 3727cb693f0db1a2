package dependency

import (
	"context"
	"fmt"
	"time"

	"github.com/sortline/sortline/api/infrastructure/jobs"
	"github.com/sortline/sortline/api/infrastructure/metrics"
	"github.com/sortline/sortline/api/infrastructure/metrics/exporters"
	"github.com/sortline/sortline/api/infrastructure/persistence/database"
	"github.com/sortline/sortline/api/infrastructure/persistence/migration"
	"github.com/sortline/sortline/api/infrastructure/profiler"
	"github.com/sortline/sortline/api/infrastructure/security"
	"github.com/sortline/sortline/api/infrastructure/tracking"
	"go.uber.org/zap"
)

func (c *Container) initInfrastructure() error {
	tracerProvider, err := exporters.InitJaegerExporter(c.Config)
	if err != nil {
		c.Logger.Error("failed to initialize Jaeger exporter", zap.Error(err))
		// Use noop tracer provider as fallback
		c.Logger.Warn("Using noop tracer provider as fallback")
	} else {
		c.TracerProvider = tracerProvider
		c.Logger.Info("Jaeger exporter initialized successfully",
			zap.String("endpoint", c.Config.Jaeger.Endpoint),
			zap.String("service", c.Config.Jaeger.ServiceName),
		)

		go exporters.SendTelemetryTrace(c.Config)
	}

	meter := exporters.Prometheus(c.Config.Jaeger.ServiceName, c.Config.Jaeger.ServiceVersion)
	if meter == nil {
		return fmt.Errorf("failed to initialize Prometheus exporter")
	}

	c.MetricsManager = metrics.NewMetricsManager(meter, c.Logger)

	c.MetricsManager.NewGauge("app_go_routines", "Number of goroutines")
	c.MetricsManager.NewGauge("app_sys_memory_alloc", "Bytes allocated and in use")
	c.MetricsManager.NewGauge("app_sys_total_alloc", "Total bytes allocated")
	c.MetricsManager.NewGauge("app_go_numGC", "Number of completed GC cycles")
	c.MetricsManager.NewGauge("app_go_sys", "Total bytes of memory obtained from OS")

	c.MetricsManager.NewCounter("http_requests_total", "Total number of HTTP requests")
	c.MetricsManager.NewHistogram("http_request_duration_seconds", "HTTP request duration in seconds",
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0)
	c.MetricsManager.NewCounter("reconcile_applied_total", "Reconciliations that wrote a status or details change")
	c.MetricsManager.NewCounter("reconcile_rejected_manual_lock_total", "Automated updates blocked by a manual lock")
	c.MetricsManager.NewCounter("status_sweep_runs_total", "Completed vendor status sweeps")
	c.MetricsManager.NewCounter("status_sweep_item_failures_total", "Per-parcel failures during sweeps")

	c.Logger.Info("Metrics initialized successfully")

	if err := database.InitDb(c.Config); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	migration.Up1()

	c.TrackingClient = tracking.NewClient(c.Config.Vendor, c.Logger)
	c.TokenVerifier = security.NewJWTVerifier(c.Config.Auth.TokenSecret)

	c.Profiler = profiler.NewAdaptiveProfiler("/var/log/sortline/profiles", c.Logger)

	return nil
}

func (c *Container) initBackgroundJobs() {
	c.StatusSweepJob = jobs.NewStatusSweepJob(
		c.ParcelRepo,
		c.TrackingClient,
		c.StatusUC,
		c.Logger,
		c.MetricsManager,
		c.Config.Sweep,
	)
}

func (c *Container) startBackgroundJobs(ctx context.Context) {
	go func() {
		time.Sleep(2 * time.Second) // Wait for all dependencies to initialize
		c.Logger.Info("Starting background jobs...")
		c.StatusSweepJob.Start(ctx)
	}()

	c.Profiler.Start(ctx)

	c.Logger.Info("Background jobs initialized and started successfully")
}
