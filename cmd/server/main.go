package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/api"
	"github.com/kushalyadavv/multi-address-backend/internal/cache"
	"github.com/kushalyadavv/multi-address-backend/internal/config"
	"github.com/kushalyadavv/multi-address-backend/internal/logger"
	"github.com/kushalyadavv/multi-address-backend/internal/service"
	"github.com/kushalyadavv/multi-address-backend/internal/shopify"
)

func main() {
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting multi-address shipping API",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("shopify_api_version", cfg.Shopify.APIVersion),
	)

	client, err := shopify.NewClient(cfg.Shopify, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create Shopify client", zap.Error(err))
	}
	gateway := service.NewShopifyService(client, zapLogger)
	svc := service.NewMultiAddressService(gateway, zapLogger)

	store := newIdempotencyStore(cfg, zapLogger)
	defer store.Close()

	router := api.NewRouter(cfg, svc, store, zapLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	zapLogger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// newIdempotencyStore uses Redis when REDIS_URL is set and falls back to memory
func newIdempotencyStore(cfg *config.Config, zapLogger *zap.Logger) cache.IdempotencyStore {
	if cfg.Idempotency.RedisURL == "" {
		zapLogger.Info("Using in-memory idempotency store")
		return cache.NewInMemoryIdempotencyStore()
	}

	store, err := cache.NewRedisIdempotencyStore(cfg.Idempotency.RedisURL)
	if err != nil {
		zapLogger.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		return cache.NewInMemoryIdempotencyStore()
	}
	zapLogger.Info("Using Redis idempotency store")
	return store
}
