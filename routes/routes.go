package routes

import (
	"kmj_screener/controllers"
	"kmj_screener/middleware"

	"github.com/gin-gonic/gin"
)

// Deps carries what the API handlers need
type Deps struct {
	Stocks      controllers.StockLister
	Analyzer    controllers.Analyzer
	Sync        controllers.SyncTrigger
	RateLimiter *middleware.RateLimiter
	JWTSecret   string
}

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, deps Deps) {
	stockController := controllers.NewStockController(deps.Stocks, deps.Analyzer)
	screenerController := controllers.NewScreenerController(deps.Analyzer)
	syncController := controllers.NewSyncController(deps.Sync)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Stock routes
		stocks := api.Group("/stocks")
		{
			stocks.GET("", stockController.GetStocks)
			stocks.GET("/:symbol/kmj", stockController.GetKMJ)
			stocks.GET("/:symbol/score", stockController.GetScore)
		}

		// Screener routes score the whole universe, so they are rate limited
		screener := api.Group("/screener")
		if deps.RateLimiter != nil {
			screener.Use(middleware.RateLimit(deps.RateLimiter))
		}
		{
			screener.POST("/screen", screenerController.Screen)
			screener.GET("/presets", screenerController.GetPresets)
			screener.GET("/presets/:id", screenerController.RunPreset)
			screener.GET("/industries", screenerController.GetIndustries)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(deps.JWTSecret))
		{
			admin.GET("/sync", syncController.Status)
			admin.POST("/sync", syncController.TriggerSync)
		}
	}
}
