package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glidepath/internal/cache"
	"glidepath/internal/config"
	"glidepath/internal/database"
	"glidepath/internal/handlers"
	"glidepath/internal/logger"
	"glidepath/internal/middleware"
	"glidepath/internal/remote"
	"glidepath/internal/services"
	"glidepath/internal/validator"
	"glidepath/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @title           Glidepath API
// @version         1.0
// @description     Glidepath is a daily-allowance budgeting service: users set up a budget from their income and fixed commitments, then track spending against a daily allowance that adjusts as the period progresses.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()

	// Data service with change notifications, and the cache on top of it
	remoteService, err := remote.NewGormService(db)
	if err != nil {
		return fmt.Errorf("failed to create data service: %w", err)
	}
	dataCache := cache.New(remoteService, cache.Config{
		TTL:             appConfig.CacheTTL,
		DisableRealtime: !appConfig.CacheRealtime,
	})

	// Initialize services
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db, dataCache, transactionService, time.Now)
	settingsService := services.NewSettingsService(remoteService, time.Now)
	wizardManager := wizard.NewManager(budgetService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	wizardHandler := handlers.NewWizardHandler(wizardManager)
	settingsHandler := handlers.NewSettingsHandler(settingsService)

	// Register custom binding validators
	validator.Register()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Metrics())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Budget routes
	budget := protected.Group("/budget")
	budget.GET("/current", budgetHandler.GetCurrentBudget)
	budget.PUT("/current", budgetHandler.UpdateCurrentBudget)
	budget.GET("/summary", budgetHandler.GetBudgetSummary)

	// Budget setup wizard routes
	wizardRoutes := protected.Group("/wizard")
	wizardRoutes.POST("", wizardHandler.Start)
	wizardRoutes.GET("", wizardHandler.GetState)
	wizardRoutes.DELETE("", wizardHandler.Cancel)
	wizardRoutes.POST("/income", wizardHandler.SubmitIncome)
	wizardRoutes.POST("/spending", wizardHandler.SubmitSpending)
	wizardRoutes.POST("/back", wizardHandler.Back)
	wizardRoutes.POST("/finish", wizardHandler.Finish)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)

	// Settings routes
	settings := protected.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PATCH("", settingsHandler.UpdateSettings)
	settings.DELETE("/error", settingsHandler.ResetSettingsError)

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Glidepath backend server on port %s", appConfig.Port)
		errCh <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Drop cached entries and release their change-stream subscriptions.
	dataCache.Clear()
	return nil
}
