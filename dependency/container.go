package dependency

import (
	"context"
	"fmt"

	boxUseCase "github.com/sortline/sortline/api/application/usecases/box"
	changeLogUseCase "github.com/sortline/sortline/api/application/usecases/changelog"
	parcelUseCase "github.com/sortline/sortline/api/application/usecases/parcel"
	statusUseCase "github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/cache"
	"github.com/sortline/sortline/api/infrastructure/config"
	"github.com/sortline/sortline/api/infrastructure/jobs"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/metrics"
	"github.com/sortline/sortline/api/infrastructure/profiler"
	"github.com/sortline/sortline/api/infrastructure/security"
	"github.com/sortline/sortline/api/infrastructure/tracking"
	boxCtrl "github.com/sortline/sortline/api/presentation/controllers/box"
	changeLogCtrl "github.com/sortline/sortline/api/presentation/controllers/changelog"
	parcelCtrl "github.com/sortline/sortline/api/presentation/controllers/parcel"
	webhookCtrl "github.com/sortline/sortline/api/presentation/controllers/webhook"
	"github.com/sortline/sortline/api/presentation/middlewares"
	"go.opentelemetry.io/otel/sdk/trace"
)

type Container struct {
	Config *config.Config
	Logger *logger.Logger

	TracerProvider *trace.TracerProvider
	MetricsManager metrics.Manager
	Profiler       *profiler.AdaptiveProfiler

	ParcelRepo repository.ParcelRepository
	AuditRepo  repository.AuditEntryRepository
	BoxRepo    repository.BoxRepository

	TrackingClient tracking.Client
	TokenVerifier  security.TokenVerifier
	BoxCache       *cache.Cache

	StatusUC    statusUseCase.StatusUseCase
	ParcelUC    parcelUseCase.ParcelUseCase
	BoxUC       boxUseCase.BoxUseCase
	ChangeLogUC changeLogUseCase.ChangeLogUseCase

	StatusSweepJob *jobs.StatusSweepJob

	ParcelController    parcelCtrl.ParcelController
	BoxController       boxCtrl.BoxController
	ChangeLogController changeLogCtrl.ChangeLogController
	WebhookController   webhookCtrl.WebhookController

	ResponseCache *middlewares.ResponseCache

	ctx    context.Context
	cancel context.CancelFunc
}

func NewContainer() (*Container, error) {
	c := &Container{}

	c.Config = config.GetConfig()

	loggerInstance, err := logger.NewDevelopmentLogger()
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	c.Logger = loggerInstance

	c.Logger.Info("Initializing Sortline API dependencies")
	if err := cache.InitRedis(c.Config); err != nil {
		return nil, fmt.Errorf("error initializing cache: %w", err)
	}

	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("error initializing infrastructure: %w", err)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.initRepositories()

	c.initUseCases()

	c.initBackgroundJobs()

	c.initMiddleware()

	c.initControllers()

	c.startBackgroundJobs(c.ctx)

	c.Logger.Info("All dependencies initialized successfully")

	return c, nil
}
