package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"taskapi/configs"
	"taskapi/infrastructure/logger"
	"taskapi/internal/delivery/rest"
	"taskapi/internal/domain/repositories"
	"taskapi/internal/repository/memory"
	"taskapi/internal/repository/postgres"
	"taskapi/internal/repository/redisdoc"
	"taskapi/internal/repository/sqlite"
	"taskapi/internal/server"
	"taskapi/internal/service"
)

func main() {
	// Initialize logger from environment
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.Named("main")

	// Load configuration
	cfg, err := configs.LoadConfig("")
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize the storage backend
	taskRepo, cleanup, err := newRepository(cfg)
	if err != nil {
		log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer cleanup()

	log.Info("Repository initialized", zap.String("driver", cfg.Repository.Driver))

	// Initialize service and HTTP layers
	taskService := service.NewTaskService(taskRepo, logger.Named("service"))
	h := rest.NewHandler(taskService, logger.Named("rest"))
	srv := server.NewServer(cfg.Server, h, logger.Named("http"))

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("address", cfg.Server.Address()))

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	log.Info("Server stopped")
}

// newRepository builds the repository selected by repository.driver and a
// cleanup function releasing its resources.
func newRepository(cfg *configs.Config) (repositories.TaskRepository, func(), error) {
	switch cfg.Repository.Driver {
	case "postgres":
		pool, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewTaskRepository(pool), pool.Close, nil

	case "sqlite":
		db, err := sqlite.NewDB(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return sqlite.NewTaskRepository(db), cleanup, nil

	case "redis":
		client, err := redisdoc.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { client.Close() }
		return redisdoc.NewTaskRepository(client, cfg.Redis.KeyPrefix), cleanup, nil

	default:
		return memory.NewTaskRepository(), func() {}, nil
	}
}
