package http

import (
	"github.com/NHL-StillFresh/still-fresh-backend/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		receipts := v1.Group("/receipts")
		{
			receipts.POST("/extract", handler.ExtractReceipt)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:id", handler.GetSession)
			sessions.POST("/:id/search", handler.SearchCandidates)
			sessions.POST("/:id/lines/:index/select", handler.SelectCandidate)
			sessions.POST("/:id/commit", handler.CommitSession)
			sessions.DELETE("/:id", handler.AbandonSession)
		}

		houses := v1.Group("/houses")
		{
			houses.GET("/:houseId/inventory", handler.HouseInventory)
		}
	}

	return router
}
