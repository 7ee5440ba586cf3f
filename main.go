package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/products-catalog-api/internal/app/service"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/sqlite"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize OpenTelemetry
	var telem *telemetry.Telemetry
	if cfg.OTLP.Export {
		telem, err = telemetry.NewTelemetry(&cfg.OTLP)
		if err != nil {
			log.Fatalf("Failed to initialize telemetry: %v", err)
		}
	} else {
		telem = telemetry.NewNoOpTelemetry(&cfg.OTLP)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure telemetry is shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	// Get tracer, meter, and logger instances
	tracer := telem.TracerProvider.Tracer("products-catalog-api")
	meter := telem.MeterProvider.Meter("products-catalog-api")
	logger := telem.Logger

	logger.Info("Starting Products Catalog API")

	// Initialize repository (dependency injection)
	var repo domain.ProductRepository
	switch cfg.Storage.Driver {
	case "sqlite":
		sqliteRepo, err := sqlite.NewProductRepository(cfg.Storage.SQLitePath, tracer, logger)
		if err != nil {
			logger.Error("Failed to open sqlite repository", "error", err.Error())
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		if err := sqliteRepo.RunMigrations(cfg.Storage.MigrationsPath); err != nil {
			logger.Error("Failed to run migrations", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Migrations completed successfully")
		repo = sqliteRepo
	default:
		repo = memory.NewProductRepository(tracer, logger)
	}

	// Initialize service
	productService := service.NewProductService(repo, tracer, meter, logger)

	// Initialize handler
	productHandler := handler.NewProductHandler(productService, logger, cfg.Server.MaxUploadBytes)

	// Initialize HTTP server
	server := http.NewServer(&cfg.Server, productHandler, logger, telem)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", "error", err.Error())
			cancel()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err.Error())
	}

	logger.Info("Server stopped")
}
