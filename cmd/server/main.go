package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/ai"
	"github.com/utsav306/farmconnect-sub000/internal/cache"
	"github.com/utsav306/farmconnect-sub000/internal/config"
	"github.com/utsav306/farmconnect-sub000/internal/db"
	"github.com/utsav306/farmconnect-sub000/internal/db/repository"
	"github.com/utsav306/farmconnect-sub000/internal/events"
	"github.com/utsav306/farmconnect-sub000/internal/logger"
	"github.com/utsav306/farmconnect-sub000/internal/middleware"
	"github.com/utsav306/farmconnect-sub000/internal/router"
	"github.com/utsav306/farmconnect-sub000/internal/service"
	"github.com/utsav306/farmconnect-sub000/internal/websockets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Server.Mode, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	database, err := db.NewPostgres(cfg.Database, logg.Named("db"))
	if err != nil {
		logg.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Run database migrations
	if err := database.Migrate(cfg.Database); err != nil {
		logg.Fatal("Failed to run database migrations", zap.Error(err))
	}

	productCache, closeCache := cache.New(ctx, cfg.Redis, logg.Named("cache"))
	defer func() {
		if err := closeCache(); err != nil {
			logg.Warn("Failed to close cache", zap.Error(err))
		}
	}()

	publisher := events.New(cfg.Kafka, logg.Named("events"))
	defer func() {
		if err := publisher.Close(); err != nil {
			logg.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	// Initialize WebSocket hub
	hub := websockets.NewHub(logg.Named("hub"))
	go hub.Run(ctx)

	if cfg.AI.APIKey == "" {
		logg.Warn("AI API key not configured, assistant answers will be fallback data")
	}

	repos := repository.NewRepositories(database)
	services := service.NewServices(cfg, service.Deps{
		Stores: service.Stores{
			Users:         repos.User,
			Products:      repos.Product,
			Carts:         repos.Cart,
			Orders:        repos.Order,
			Conversations: repos.Conversation,
		},
		Cache:     productCache,
		Publisher: publisher,
		Notifier:  hub,
		Model:     ai.NewClient(cfg.AI),
		Log:       logg,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx, time.Minute)

	r := router.New(router.Deps{
		Config:   cfg,
		Services: services,
		Hub:      hub,
		DB:       database,
		Limiter:  limiter,
		Log:      logg,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logg.Info("Server starting",
			zap.String("address", cfg.Server.Address),
			zap.String("mode", cfg.Server.Mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logg.Info("Shutting down server...")
	case err := <-serverErr:
		logg.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logg.Info("Server exited properly")
}
