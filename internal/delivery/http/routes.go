package http

import (
	"github.com/agnesleth/hello-poor/config"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/offers/extract", handler.ExtractOffers)

		stores := v1.Group("/stores")
		{
			stores.GET("", handler.ListStores)
			stores.POST("/:storeId/scrape", handler.ScrapeStore)
			stores.GET("/:storeId/offers", handler.GetStoreOffers)
		}

		v1.POST("/match", handler.MatchIngredients)
		v1.POST("/recipes", handler.ImportRecipes)

		recommendations := v1.Group("/recommendations")
		{
			recommendations.POST("", handler.Recommend)
			recommendations.GET("/:userId/latest", handler.LatestRecommendations)
		}
	}

	return router
}
