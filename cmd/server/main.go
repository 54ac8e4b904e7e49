package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/protein-design-studio/internal/api"
	"github.com/protein-design-studio/internal/config"
	"github.com/protein-design-studio/internal/database"
	"github.com/protein-design-studio/internal/events"
	"github.com/protein-design-studio/internal/repository"
	"github.com/protein-design-studio/internal/service"
	"github.com/protein-design-studio/internal/storage"
	"github.com/protein-design-studio/pkg/pipeline"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database pool and schema migrations
	db, err := database.NewConnection(ctx, database.FromDomain(&cfg.Database), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	migrator, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	if err := migrator.Up(); err != nil {
		logger.WithError(err).Fatal("Failed to apply migrations")
	}
	migrator.Close()

	// Upload and artifact storage
	store, err := storage.NewStore(cfg.Storage.OutputDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}

	// Job event log
	eventStore, err := newEventStore(configManager)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize event store")
	}
	defer eventStore.Close()

	// Inference backend with circuit breaker and check cache
	backend, err := pipeline.NewResilientBackend(cfg.Pipeline, cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize inference backend")
	}
	defer backend.Close()

	repo := repository.NewJobRepository(db.Pool, logger)
	hub := pipeline.NewHub(logger)
	defer hub.Close()

	watcher := pipeline.NewWatcher(backend, repo, eventStore, hub, cfg.Pipeline.PollInterval, logger)
	defer watcher.Close()

	designService := service.NewDesignService(logger, repo, backend, store, eventStore, watcher)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting Protein Design Studio server")

	server := api.NewServer(configManager, designService, store, hub, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func newEventStore(configManager *config.Manager) (events.Store, error) {
	cfg := configManager.GetConfig()

	switch cfg.Events.Backend {
	case "postgres":
		return events.NewPostgresStoreFromURL(configManager.GetDatabaseURL())
	default:
		return events.NewSQLiteStore(cfg.Events.SQLitePath)
	}
}
