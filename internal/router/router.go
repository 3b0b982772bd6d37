package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/watchpost-dev/watchpost/internal/handlers"
	"github.com/watchpost-dev/watchpost/internal/middleware"
	"github.com/watchpost-dev/watchpost/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		uptime := api.Group("/uptime", middleware.AuthMiddleware())
		{
			uptime.POST("/monitors", handlers.CreateMonitor)
			uptime.GET("/monitors", handlers.ListMonitors)
			uptime.GET("/monitors/:monitor_id", handlers.GetMonitor)
			uptime.PATCH("/monitors/:monitor_id", handlers.UpdateMonitor)
			uptime.DELETE("/monitors/:monitor_id", handlers.DeleteMonitor)
			uptime.POST("/monitors/:monitor_id/check", handlers.TriggerCheck)
			uptime.GET("/monitors/:monitor_id/checks", handlers.GetMonitorChecks)
			uptime.GET("/monitors/:monitor_id/incidents", handlers.GetMonitorIncidents)
		}
	}

	return r
}
