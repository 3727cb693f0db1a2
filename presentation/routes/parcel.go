package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sortline/sortline/api/infrastructure/cache"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/presentation/controllers/parcel"
	"github.com/sortline/sortline/api/presentation/middlewares"
)

func ParcelRoutes(router *gin.RouterGroup, controller parcel.ParcelController, logger *logger.Logger) {
	parcels := router.Group("/parcels")
	parcels.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), logger, middlewares.ModerateRateLimiterConfig()))
	{
		parcels.POST("", controller.RegisterParcel)
		parcels.POST("/search", controller.SearchParcels)
		parcels.GET("/:code", controller.GetParcel)
		parcels.DELETE("/:code", controller.DeleteParcel)

		parcels.PUT("/:code/status", controller.SetManualStatus)
		parcels.DELETE("/:code/lock", controller.ClearManualLock)
	}

	// On-demand sweep is deliberately strict: it fans out to the vendor.
	sweep := router.Group("/sweep")
	sweep.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), logger, middlewares.StrictRateLimiterConfig()))
	{
		sweep.POST("", controller.TriggerSweep)
	}
}
