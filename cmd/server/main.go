package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/group-decide/internal/api"
	"github.com/dom/group-decide/internal/config"
	"github.com/dom/group-decide/internal/repository"
	"github.com/dom/group-decide/internal/repository/memory"
	"github.com/dom/group-decide/internal/repository/postgres"
	"github.com/dom/group-decide/internal/service"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize repositories
	var repos *repository.Repositories
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		log.Println("Using in-memory store; data is lost on restart")
		repos = memory.NewStore().Repositories()
	default:
		logLevel := logger.Info
		if cfg.IsProduction() {
			logLevel = logger.Warn
		}

		db, err := postgres.NewConnection(cfg.DatabaseURL, logLevel)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer postgres.Close(db)

		repos = postgres.NewRepositories(db)
	}

	// Initialize services
	services := service.NewServices(repos, cfg)

	// Initialize router
	router := api.NewRouter(services)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
