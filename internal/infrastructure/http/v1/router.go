// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"larder/internal/domain/catalogs/ingredient"
	"larder/internal/domain/catalogs/recipe"
	"larder/internal/domain/deduction"
	"larder/internal/domain/ledger"
	"larder/internal/domain/reports"
	"larder/internal/infrastructure/http/v1/handlers"
	"larder/internal/infrastructure/http/v1/middleware"
	"larder/internal/infrastructure/storage/postgres"
	"larder/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// JWTSecret verifies bearer tokens for audit attribution
	JWTSecret []byte

	// Audit records catalog and ledger changes; nil disables auditing
	Audit *postgres.AuditService

	Ingredients *ingredient.Service
	Recipes     *recipe.Service
	Ledger      *ledger.Service
	Deduction   *deduction.Service
	Reports     *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no actor required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	base := handlers.NewBaseHandler()
	ingredientHandler := handlers.NewIngredientHandler(base, cfg.Ingredients, cfg.Audit)
	recipeHandler := handlers.NewRecipeHandler(base, cfg.Recipes, cfg.Audit)
	batchHandler := handlers.NewBatchHandler(base, cfg.Ledger, cfg.Audit)
	deductionHandler := handlers.NewDeductionHandler(base, cfg.Deduction)
	reportsHandler := handlers.NewReportsHandler(base, cfg.Reports)

	// API v1
	api := router.Group("/api/v1")
	api.Use(middleware.Actor(cfg.JWTSecret))
	{
		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", ingredientHandler.List)
			ingredients.POST("", ingredientHandler.Create)
			ingredients.GET("/:id", ingredientHandler.Get)
			ingredients.PUT("/:id", ingredientHandler.Update)
			ingredients.POST("/:id/deactivate", ingredientHandler.Deactivate)
			ingredients.POST("/:id/reactivate", ingredientHandler.Reactivate)
			ingredients.GET("/:id/batches", batchHandler.ListAvailable)
			ingredients.GET("/:id/movements", batchHandler.MovementHistory)
		}

		recipes := api.Group("/recipes")
		{
			recipes.GET("", recipeHandler.List)
			recipes.POST("", recipeHandler.Create)
			recipes.GET("/:id", recipeHandler.Get)
			recipes.PUT("/:id", recipeHandler.Update)
			recipes.POST("/:id/deactivate", recipeHandler.Deactivate)
			recipes.GET("/by-product/:productId", recipeHandler.GetByProduct)
			recipes.POST("/:id/check-availability", deductionHandler.CheckAvailability)
		}

		batches := api.Group("/batches")
		{
			batches.POST("", batchHandler.Create)
			batches.GET("/:id", batchHandler.Get)
			batches.POST("/:id/adjust", batchHandler.Adjust)
			batches.POST("/:id/dispose", batchHandler.Dispose)
			batches.GET("/:id/audit", batchHandler.AuditHistory)
			batches.POST("/expire", batchHandler.Expire)
		}

		stock := api.Group("/stock")
		{
			stock.GET("/summary", batchHandler.StockSummary)
			stock.GET("/expiring", batchHandler.Expiring)
			stock.GET("/low", batchHandler.LowStock)
		}

		orders := api.Group("/orders")
		{
			orders.POST("/process", deductionHandler.ProcessOrder)
			orders.POST("/simulate", deductionHandler.Simulate)
			orders.POST("/:orderId/revert", deductionHandler.Revert)
		}

		reportGroup := api.Group("/reports")
		{
			reportGroup.GET("/consumption", reportsHandler.Consumption)
			reportGroup.GET("/expiry", reportsHandler.Expiry)
		}
	}

	return router
}
