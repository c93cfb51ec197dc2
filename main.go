package main

import (
	"context"
	gosql "database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/audit"
	"github.com/reportgrid/sqlagent/pkg/config"
	"github.com/reportgrid/sqlagent/pkg/database"
	"github.com/reportgrid/sqlagent/pkg/handlers"
	"github.com/reportgrid/sqlagent/pkg/llm"
	"github.com/reportgrid/sqlagent/pkg/logging"
	"github.com/reportgrid/sqlagent/pkg/middleware"
	"github.com/reportgrid/sqlagent/pkg/repositories"
	"github.com/reportgrid/sqlagent/pkg/services"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("generative_backend", cfg.AI.IsAvailable()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := applyMigrations(cfg, logger); err != nil {
		logger.Fatal("Migrations failed", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		ConnString:     cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to registry database", zap.Error(err))
	}
	defer db.Close()

	registryRepo := repositories.NewTableRegistryRepository(db)
	schemaCache := services.NewSchemaCache(registryRepo, logger)
	validator := services.NewValidationService(schemaCache, logger)
	registrySvc := services.NewRegistryService(registryRepo, schemaCache, logger)
	auditor := audit.NewQueryAuditor(logger)

	var backend llm.Client
	if cfg.AI.IsAvailable() {
		backend, err = llm.NewClient(&llm.Config{
			Provider:  cfg.AI.Provider,
			Endpoint:  cfg.AI.Endpoint,
			Model:     cfg.AI.Model,
			APIKey:    cfg.AI.APIKey,
			MaxTokens: cfg.AI.MaxTokens,
		}, logger)
		if err != nil {
			// Generation still works deterministically without a backend.
			logger.Warn("Generative backend misconfigured, running deterministic-only", zap.Error(err))
			backend = nil
		}
	}

	generator := services.NewGenerationService(validator, schemaCache, backend, auditor, cfg.AI.Timeout(), logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSQLHandler(validator, generator, registrySvc, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown", zap.Error(err))
		}
	}()

	logger.Info("Starting sqlagent", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// applyMigrations runs registry migrations over database/sql, which the
// migration driver requires.
func applyMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := gosql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}
