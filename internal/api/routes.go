package api

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/slamdunk/internal/api/handlers"
	"github.com/playmatatu/slamdunk/internal/config"
	"github.com/playmatatu/slamdunk/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Info("[DEV MODE] no-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		tables := v1.Group("/tables")
		{
			tables.POST("", handlers.CreateTable(cfg))
			tables.GET("/:token", handlers.GetTableState)
			tables.GET("/:token/events", handlers.GetTableEvents)
			tables.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleTableWebSocket(cfg))

			host := tables.Group("/:token", handlers.AuthMiddleware(cfg, true))
			{
				host.POST("/shot", handlers.TakeShot)
				host.POST("/reset", handlers.ResetTable)
				host.POST("/contacts/begin", handlers.BeginContact)
				host.POST("/contacts/end", handlers.EndContact)
				host.DELETE("", handlers.CloseTable)
			}
		}
	}
}
