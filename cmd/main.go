package main

import (
	"net/http"

	"catalog-service/internal/handler"
	mid "catalog-service/internal/middleware"
	"catalog-service/internal/mirror"
	"catalog-service/internal/repository"
	"catalog-service/internal/service"
	"catalog-service/pkg/config"
	"catalog-service/pkg/database"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine: deployed environments set real env vars
		// and config.Load falls back to defaults for the rest
	}

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use the structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting catalog-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Connect to the database and run migrations
	db, err := database.Connect(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Prepare the filesystem mirror
	m := mirror.New(appConfig.Storage.ProductsDir, log)
	if err := m.EnsureBaseDir(); err != nil {
		log.Fatal("Failed to prepare products directory", zap.Error(err))
	}
	log.Info("Products directory ready", zap.String("path", appConfig.Storage.ProductsDir))

	// Wire repositories, services and handlers
	repos := repository.NewRepositories(db)
	productService := service.NewProductService(repos, m, appConfig.Storage.OpTimeout)
	tagService := service.NewTagService(repos, appConfig.Storage.OpTimeout)
	reconcileService := service.NewReconcileService(repos, m)

	products := handler.NewProductHandler(productService)
	categories := handler.NewCategoryHandler(repos.Categories)
	tags := handler.NewTagHandler(tagService)
	materials := handler.NewMaterialHandler(repos.Materials)
	inventory := handler.NewInventoryHandler(productService)
	admin := handler.NewAdminHandler(reconcileService)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Product API routes
	productAPI := e.Group("/api/products")
	productAPI.GET("", products.List)
	productAPI.GET("/search", products.Search)
	productAPI.GET("/:id", products.Get)
	productAPI.POST("", products.Create)
	productAPI.PUT("/:id", products.Update)
	productAPI.DELETE("/:id", products.Delete)

	// Inventory API routes
	inventoryAPI := e.Group("/api/inventory")
	inventoryAPI.GET("/status", inventory.Status)
	inventoryAPI.PUT("/:sku", inventory.Update)

	// Category API routes
	categoryAPI := e.Group("/api/categories")
	categoryAPI.GET("", categories.List)
	categoryAPI.POST("", categories.Create)
	categoryAPI.PUT("/:id", categories.Update)
	categoryAPI.DELETE("/:id", categories.Delete)

	// Tag API routes
	tagAPI := e.Group("/api/tags")
	tagAPI.GET("", tags.List)
	tagAPI.GET("/suggest", tags.Suggest)
	tagAPI.GET("/similar", tags.Similar)
	tagAPI.GET("/stats", tags.Stats)
	tagAPI.POST("", tags.Create)
	tagAPI.DELETE("/:name", tags.Delete)

	// Material API routes
	materialAPI := e.Group("/api/materials")
	materialAPI.GET("", materials.List)
	materialAPI.POST("", materials.Create)
	materialAPI.DELETE("/:id", materials.Delete)

	// Admin routes
	adminAPI := e.Group("/api/admin")
	adminAPI.GET("/reconcile", admin.Reconcile)
	adminAPI.POST("/restore", admin.Restore)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
