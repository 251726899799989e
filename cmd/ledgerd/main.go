package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/api/middleware"
	"github.com/feral-file/ff-token-ledger/internal/api/server"
	"github.com/feral-file/ff-token-ledger/internal/config"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/providers/jetstream"
	"github.com/feral-file/ff-token-ledger/internal/registry"
	"github.com/feral-file/ff-token-ledger/internal/runtime"
	"github.com/feral-file/ff-token-ledger/internal/store"
	"github.com/feral-file/ff-token-ledger/internal/webhook"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadLedgerdConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "ledgerd",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Feral File Token Ledger")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}

	// Run migrations
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db)

	// Connect to NATS JetStream
	publisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	})
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()
	logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))

	// Load genesis allocation, applied only when the store is empty
	var allocation *registry.Allocation
	if cfg.Ledger.AllocationPath != "" {
		loader := registry.NewAllocationLoader(adapter.NewFileSystem(), adapter.NewJSON())
		allocation, err = loader.Load(cfg.Ledger.AllocationPath)
		if err != nil {
			logger.Fatal("Failed to load allocation",
				zap.Error(err),
				zap.String("path", cfg.Ledger.AllocationPath))
		}
		logger.Info("Loaded genesis allocation", zap.String("path", cfg.Ledger.AllocationPath))
	}

	// Configure receive hooks
	var notifier *webhook.Notifier
	if len(cfg.Webhooks.Endpoints) > 0 {
		endpoints := make([]webhook.Endpoint, len(cfg.Webhooks.Endpoints))
		for i, ep := range cfg.Webhooks.Endpoints {
			endpoints[i] = webhook.Endpoint{
				URL:    ep.URL,
				Secret: ep.Secret,
				Events: ep.Events,
			}
		}
		notifier = webhook.NewNotifier(endpoints, cfg.Webhooks.Timeout)
		logger.Info("Receive hooks configured", zap.Int("endpoints", len(endpoints)))
	}

	// Boot the ledger runtime
	rt, err := runtime.New(ctx, runtime.Config{
		Store:     dataStore,
		Publisher: publisher,
		Notifier:  notifier,
		Seed: runtime.Seed{
			Administrator:       domain.NormalizeAddress(cfg.Ledger.Administrator),
			Name:                cfg.Ledger.Name,
			BaseMetadataLocator: cfg.Ledger.BaseMetadataLocator,
			Allocation:          allocation,
		},
	})
	if err != nil {
		logger.Fatal("Failed to boot ledger runtime", zap.Error(err))
	}

	// Create and start server
	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}, rt)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Ledger service stopped")
}
