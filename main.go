package main

import (
	"context"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"signal-fusion-engine/config"
	"signal-fusion-engine/internal/api"
	"signal-fusion-engine/internal/auth"
	"signal-fusion-engine/internal/cache"
	"signal-fusion-engine/internal/database"
	"signal-fusion-engine/internal/engine"
	"signal-fusion-engine/internal/events"
	"signal-fusion-engine/internal/logging"
	"signal-fusion-engine/internal/market"
	"signal-fusion-engine/internal/signal"
	"signal-fusion-engine/internal/vault"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(&logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
	})
	logger.Info().Msg("structured logging initialized")

	// Initialize event bus
	eventBus := events.NewEventBus()
	logger.Info().Msg("event bus initialized")

	ctx := context.Background()

	// Initialize database for signal history (optional)
	var repo *database.Repository
	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}

		repo = database.NewRepository(db)
		logger.Info().Msg("signal history enabled")
	} else {
		logger.Info().Msg("signal history disabled, signals will not be persisted")
	}

	// Initialize Redis cache (optional, degrades gracefully)
	var cacheService *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.NewCacheService(cache.Config{
			Enabled:  cfg.RedisConfig.Enabled,
			Address:  cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("cache unavailable, continuing without it")
			cacheService = nil
		} else {
			defer cacheService.Close()
		}
	}

	// Initialize Vault client for provider credentials (optional)
	var vaultClient *vault.Client
	if cfg.VaultConfig.Enabled {
		vaultClient, err = vault.NewClient(cfg.VaultConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize vault client")
		}
		logger.Info().Str("address", cfg.VaultConfig.Address).Msg("vault client initialized")
	}

	// Initialize authentication (optional)
	var authService *auth.Service
	if cfg.AuthConfig.Enabled {
		clients := make([]auth.Client, 0, len(cfg.AuthConfig.Clients))
		for _, c := range cfg.AuthConfig.Clients {
			clients = append(clients, auth.Client{
				ID:         c.ID,
				Name:       c.Name,
				SecretHash: c.SecretHash,
				Role:       c.Role,
				Disabled:   c.Disabled,
			})
		}
		authService = auth.NewService(auth.Config{
			Enabled:              true,
			JWTSecret:            cfg.AuthConfig.JWTSecret,
			AccessTokenDuration:  cfg.AuthConfig.AccessTokenDuration,
			RefreshTokenDuration: cfg.AuthConfig.RefreshTokenDuration,
			Clients:              clients,
		}, logger)
		logger.Info().Int("clients", len(clients)).Msg("authentication enabled")
	} else {
		logger.Warn().Msg("authentication disabled, API is open")
	}

	// Initialize the market data feed (optional). Requests that arrive
	// without candles are hydrated through it, with Redis read-through
	// when the cache is up.
	var provider market.SnapshotProvider
	if cfg.MarketConfig.Enabled {
		upstream := market.NewHTTPProvider(cfg.MarketConfig.BaseURL, cfg.MarketConfig.APIKey, logger)
		var backend market.Cache
		if cacheService != nil {
			backend = cacheService
		}
		provider = market.NewCachedProvider(upstream, backend, logger)
		logger.Info().Str("base_url", cfg.MarketConfig.BaseURL).Msg("market data feed initialized")
	}

	// Build the signal pipeline
	registry := engine.NewRegistry(logger)
	generator := signal.NewGenerator(registry, logger,
		signal.WithEngineTimeout(cfg.EngineConfig.EngineTimeout),
		signal.WithMaxAllocation(cfg.EngineConfig.MaxAllocation),
	)
	logger.Info().
		Int("engines", len(registry.Engines())).
		Dur("engine_timeout", cfg.EngineConfig.EngineTimeout).
		Msg("signal pipeline initialized")

	// Start the API server
	server := api.NewServer(api.ServerConfig{
		Port:           cfg.ServerConfig.Port,
		Host:           cfg.ServerConfig.Host,
		ProductionMode: cfg.ServerConfig.ProductionMode,
		AllowedOrigins: cfg.ServerConfig.Origins(),
		RateLimit:      cfg.ServerConfig.RateLimit,
	}, generator, provider, repo, eventBus, cacheService, vaultClient, authService, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	eventBus.Publish(events.Event{
		Type: events.EventServerStarted,
		Data: map[string]interface{}{
			"port": cfg.ServerConfig.Port,
		},
	})

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	}

	eventBus.Publish(events.Event{Type: events.EventServerStopping})

	shutdownTimeout := time.Duration(cfg.ServerConfig.ShutdownTimeout) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
