package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/api"
	"github.com/earnwise/earnwise-go/internal/auth"
	"github.com/earnwise/earnwise-go/internal/cache"
	"github.com/earnwise/earnwise-go/internal/config"
	"github.com/earnwise/earnwise-go/internal/datasource"
	"github.com/earnwise/earnwise-go/internal/handlers"
	"github.com/earnwise/earnwise-go/internal/logging"
	"github.com/earnwise/earnwise-go/internal/middleware"
	"github.com/earnwise/earnwise-go/internal/services"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	redisClient, err := cache.Connect(cfg.Redis, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.WithError(err).Warn("Error closing Redis client")
		}
	}()

	queryCache := cache.NewQueryCache(redisClient, cfg.Optimization.CacheTTLDuration(), logger)

	var source datasource.DataSource
	switch cfg.Optimization.Source {
	case "http":
		source = datasource.NewHTTPSource(&cfg.Optimization, logger)
	default:
		latency := time.Duration(cfg.Optimization.FixtureLatencyMs) * time.Millisecond
		source = datasource.NewFixtureSource(latency, logger)
	}
	optimizationService := services.NewOptimizationService(source, queryCache, &cfg.Optimization, logger)

	var backend auth.Backend
	if cfg.Auth.ServiceURL != "" {
		backend = auth.NewHTTPBackend(cfg.Auth, logger)
	} else {
		logger.Info("No auth service configured, using in-memory auth backend")
		backend = auth.NewMemoryBackend(cfg.Auth)
	}

	store := auth.NewStore()
	reducer := auth.NewReducer(store, queryCache, logger)
	authService := auth.NewService(backend, logger)
	authService.OnAuthEvent(reducer.Handle)
	authService.OnRefreshFailure(reducer.ForceSignOut)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Dependencies{
		Optimization: handlers.NewOptimizationHandler(optimizationService, logger),
		Auth:         handlers.NewAuthHandler(authService, store, reducer, logger),
		AuthMW:       middleware.NewAuthMiddleware(cfg.Auth.JWTSecret),
		Redis:        redisClient,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
