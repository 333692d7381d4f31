package server

import (
	"time"

	"omnicast/infrastructure/configuration"
	"omnicast/infrastructure/realtime"
	httpHandler "omnicast/interfaces/http"
	"omnicast/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	User     httpHandler.IUserHandler
	Platform httpHandler.IPlatformHandler
	Upload   httpHandler.IUploadHandler
	Health   httpHandler.IHealthHandler
	Progress *realtime.Hub
}

func InitiateRouter(app configuration.App, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     app.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", h.Health.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("api")
	api.Use(middleware.Identity(app.SecretKey, app.DefaultUserID))

	api.GET("/user", h.User.GetCurrentUser)

	platforms := api.Group("/platforms")
	{
		platforms.GET("", h.Platform.List)
		platforms.PATCH("/:platform", h.Platform.Update)
		platforms.POST("/:platform/connect", h.Platform.Connect)
		platforms.POST("/:platform/disconnect", h.Platform.Disconnect)
	}

	uploads := api.Group("/uploads")
	{
		uploads.GET("", h.Upload.List)
		uploads.POST("", h.Upload.Create)
		if h.Progress != nil {
			uploads.GET("/stream", h.Progress.Serve)
		}
		uploads.GET("/:id", h.Upload.Get)
		uploads.GET("/:id/progress", h.Upload.Progress)
		uploads.POST("/:id/cancel", h.Upload.Cancel)
		uploads.PATCH("/:id/platforms/:platformId", h.Upload.UpdatePlatformSettings)
	}

	return router
}
