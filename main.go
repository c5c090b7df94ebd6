package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epeers/repricer/config"
	_ "github.com/epeers/repricer/docs"
	"github.com/epeers/repricer/internal/cache"
	"github.com/epeers/repricer/internal/database"
	"github.com/epeers/repricer/internal/handlers"
	"github.com/epeers/repricer/internal/middleware"
	"github.com/epeers/repricer/internal/repository"
	"github.com/epeers/repricer/internal/services"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Repricer API
// @version 1.0
// @description Batch repricing engine for vehicle inventory
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for initialization
	ctx := context.Background()

	// Initialize database connection
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize caches
	cfgCache := cache.NewStrategyCache(5 * time.Minute)

	// Initialize repositories
	strategyRepo := repository.NewStrategyRepository(db.Pool)

	// Initialize services
	strategySvc := services.NewStrategyService(strategyRepo, cfgCache)
	processSvc := services.NewProcessService(strategySvc)

	// Seed the default strategy when the store is empty
	if err := strategySvc.Seed(ctx, cfg.SeedPath); err != nil {
		log.Fatalf("Failed to seed default strategy: %v", err)
	}

	// Initialize handlers
	processHandler := handlers.NewProcessHandler(processSvc)
	strategyHandler := handlers.NewStrategyHandler(strategySvc)

	// Setup Gin router
	router := gin.Default()

	// Apply global middleware
	router.Use(middleware.RequestLogger())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Batch processing routes
	router.POST("/process", processHandler.Process)
	router.POST("/download", processHandler.Download)

	// Strategy store routes
	router.GET("/strategies", strategyHandler.List)
	router.GET("/strategies/:name", strategyHandler.Get)
	router.POST("/strategies", strategyHandler.Save)
	router.DELETE("/strategies/:name", strategyHandler.Delete)
	router.POST("/strategies/:name/activate", strategyHandler.Activate)

	// API docs
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	fmt.Println("Server exited")
}
