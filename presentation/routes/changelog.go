package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sortline/sortline/api/infrastructure/cache"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/security"
	"github.com/sortline/sortline/api/presentation/controllers/changelog"
	"github.com/sortline/sortline/api/presentation/middlewares"
)

// ChangeLogRoutes registers on an unauthenticated group and applies auth
// per route: the snapshot and history endpoints take a bearer token, the
// SSE stream authenticates via query parameter because EventSource
// clients cannot set headers at connect time.
func ChangeLogRoutes(router *gin.RouterGroup, controller changelog.ChangeLogController, verifier security.TokenVerifier, logger *logger.Logger) {
	logs := router.Group("/changelog")
	logs.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), logger, middlewares.LenientRateLimiterConfig()))
	{
		logs.GET("", middlewares.RequireAuth(verifier, logger), controller.QueryChangeLog)
		logs.GET("/stream", middlewares.RequireFeedAuth(verifier, logger), controller.Stream)
	}

	router.GET("/parcels/:code/history", middlewares.RequireAuth(verifier, logger), controller.GetParcelHistory)
}
