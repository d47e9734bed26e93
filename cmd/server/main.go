package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mishipay/shopify-bridge/internal/application/dispatch"
	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/cache"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/config"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/logger"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/mishipay"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/persistence"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/shopify"
	"github.com/mishipay/shopify-bridge/internal/interfaces/http/handler"
	"github.com/mishipay/shopify-bridge/internal/interfaces/http/middleware"
	"github.com/mishipay/shopify-bridge/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Shopify Bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed gorm logger
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected")

	// Barcode cache: Redis when reachable, in-memory fallback for
	// single-instance deployments
	var barcodes shared.BarcodeCache
	redisCache, err := cache.NewRedisBarcodeCache(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory barcode cache", zap.Error(err))
		barcodes = cache.NewInMemoryBarcodeCache()
	} else {
		barcodes = redisCache
	}
	defer func() {
		if err := barcodes.Close(); err != nil {
			log.Error("Error closing barcode cache", zap.Error(err))
		}
	}()

	// Repositories
	eventRepo := persistence.NewGormEventRepository(db.DB)
	configRepo := persistence.NewGormConfigRepository(db.DB)

	// External collaborators
	shopifyClient := shopify.NewClient(cfg.Shopify, log.Named("shopify"))
	inventoryClient := mishipay.NewInventoryClient(cfg.Downstream, log.Named("inventory"))
	promotionClient := mishipay.NewPromotionClient(cfg.Downstream, log.Named("promotion"))

	// Dispatch pipeline
	processor := dispatch.NewProcessor(
		configRepo,
		eventRepo,
		inventoryClient,
		promotionClient,
		shopifyClient,
		barcodes,
		log.Named("processor"),
	)
	pool := dispatch.NewWorkerPool(
		cfg.Dispatch.Workers,
		cfg.Dispatch.QueueSize,
		cfg.Dispatch.JobTimeout,
		log.Named("workers"),
	)
	coordinator := dispatch.NewCoordinator(configRepo, eventRepo, pool, processor, log.Named("dispatch"))

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	r := router.NewRouter(engine)
	r.Register(handler.NewWebhookHandler(coordinator, cfg.HTTP.MaxBodySize, log.Named("webhook")))
	r.Register(handler.NewSystemHandler(db))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop accepting requests, then drain the worker pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := pool.Stop(ctx); err != nil {
		log.Error("Worker pool did not drain in time", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
