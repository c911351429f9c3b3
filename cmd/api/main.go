package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"butcher-shop/internal/config"
	"butcher-shop/internal/database"
	"butcher-shop/internal/logger"
	"butcher-shop/internal/server"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, log *zap.Logger, done chan<- struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// In-flight checkouts get 30 seconds to commit or roll back.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		log.Error("Error closing server resources", zap.Error(err))
	}

	log.Info("Server exiting")
	close(done)
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting butcher shop API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	if err := database.RunMigrations(dbService.DB(), cfg.Database.MigrationsDir, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully")

	srv := server.NewServer(cfg, log, dbService)

	done := make(chan struct{})
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
