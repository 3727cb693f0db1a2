package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sortline/sortline/api/infrastructure/cache"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/presentation/controllers/box"
	"github.com/sortline/sortline/api/presentation/middlewares"
)

func BoxRoutes(router *gin.RouterGroup, controller box.BoxController, responseCache *middlewares.ResponseCache, logger *logger.Logger) {
	boxes := router.Group("/boxes")
	boxes.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), logger, middlewares.ModerateRateLimiterConfig()))
	{
		boxes.POST("", controller.CreateBox)
		boxes.GET("", responseCache.Middleware(), controller.ListBoxes)
		boxes.GET("/:id", controller.GetBox)
		boxes.DELETE("/:id", controller.DeleteBox)
	}
}
