package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sortline/sortline/api/infrastructure/cache"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/presentation/controllers/webhook"
	"github.com/sortline/sortline/api/presentation/middlewares"
)

// WebhookRoutes hang off the root router, not the authenticated API
// group: webhooks authenticate with their HMAC signature instead of a
// bearer token.
func WebhookRoutes(router *gin.Engine, controller webhook.WebhookController, logger *logger.Logger) {
	hooks := router.Group("/webhooks")
	hooks.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), logger, middlewares.WebhookRateLimiterConfig()))
	{
		hooks.POST("/tracking", controller.ReceiveTrackingUpdate)
	}
}
