package dependency

import (
	"context"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sortline/sortline/api/infrastructure/cache"
	"github.com/sortline/sortline/api/infrastructure/metrics"
	"github.com/sortline/sortline/api/infrastructure/persistence/database"
	boxCtrl "github.com/sortline/sortline/api/presentation/controllers/box"
	changeLogCtrl "github.com/sortline/sortline/api/presentation/controllers/changelog"
	parcelCtrl "github.com/sortline/sortline/api/presentation/controllers/parcel"
	webhookCtrl "github.com/sortline/sortline/api/presentation/controllers/webhook"
	"github.com/sortline/sortline/api/presentation/middlewares"
	"github.com/sortline/sortline/api/presentation/routes"
	"go.uber.org/zap"
)

func (c *Container) initMiddleware() {
	c.ResponseCache = middlewares.NewResponseCache(15 * time.Second)

	c.Logger.Info("Middleware components initialized successfully")
}

func (c *Container) initControllers() {
	c.ParcelController = parcelCtrl.NewParcelController(c.ParcelUC, c.StatusSweepJob)
	c.BoxController = boxCtrl.NewBoxController(c.BoxUC)
	c.ChangeLogController = changeLogCtrl.NewChangeLogController(c.ChangeLogUC, c.ParcelUC, c.Config.Feed, c.Logger)
	c.WebhookController = webhookCtrl.NewWebhookController(c.StatusUC, c.Config.Webhook, c.Logger)

	c.Logger.Info("Controllers initialized successfully")
}

func (c *Container) SetupRouter() *gin.Engine {
	switch c.Config.Server.RunMode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	binding.Validator = new(middlewares.DefaultValidator)

	router := gin.Default()

	router.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         5 * time.Second,
	}))

	if c.Config.IsProduction() {
		router.Use(middlewares.ForceHttps(c.Config))
	}

	router.Use(middlewares.GinLogger(c.Logger, c.MetricsManager))
	router.Use(middlewares.CorsMiddleware(c.Config))

	router.GET("/health", c.healthCheckHandler)

	c.registerObservabilityRoutes(router)

	c.registerAPIRoutes(router)

	routes.WebhookRoutes(router, c.WebhookController, c.Logger)

	c.Logger.Info("Router configured successfully")

	return router
}

func (c *Container) registerAPIRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		authed := v1.Group("")
		authed.Use(middlewares.RequireAuth(c.TokenVerifier, c.Logger))
		routes.ParcelRoutes(authed, c.ParcelController, c.Logger)
		routes.BoxRoutes(authed, c.BoxController, c.ResponseCache, c.Logger)

		// Change-log routes manage auth themselves: the SSE stream cannot
		// send an Authorization header, so its token rides the query string.
		routes.ChangeLogRoutes(v1, c.ChangeLogController, c.TokenVerifier, c.Logger)
	}
}

func (c *Container) healthCheckHandler(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (c *Container) registerObservabilityRoutes(router *gin.Engine) {
	metricsGroup := router.Group("/observability")
	{
		metrics.GetHandler(metricsGroup, c.MetricsManager)
	}
}

func (c *Container) Shutdown() error {
	c.Logger.Info("Shutting down dependencies...")

	if c.StatusSweepJob != nil {
		c.StatusSweepJob.Stop()
	}

	if c.BoxCache != nil {
		c.BoxCache.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}

	if c.TracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.TracerProvider.Shutdown(ctx); err != nil {
			c.Logger.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}

	cache.CloseRedis()

	if err := c.Logger.Log.Sync(); err != nil {
		c.Logger.Error("failed to sync logger", zap.Error(err))
	}

	c.Logger.Info("Dependencies shut down successfully")

	return database.CloseDb()
}
