package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/ai"
	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/handler"
	"dispatch/internal/logging"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	logger := logging.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", "error", err)
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	publishers := app.NewPublishers(cfg.Kafka, logger)
	defer publishers.Close()

	var advisor ai.RouteAdvisor
	if cfg.Gemini.APIKey != "" {
		gemini, err := ai.NewGeminiAdvisor(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warn("route advice disabled", "error", err)
		} else {
			defer gemini.Close()
			advisor = gemini
		}
	}

	// Wire dependencies.
	server, rideService, err := wireServer(ctx, db, redisClient, nrApp, publishers, advisor, logger, cfg)
	if err != nil {
		logger.Error("failed to start dispatch", "error", err)
		os.Exit(1)
	}
	defer rideService.Close()

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies, restores the fleet and returns the HTTP
// server together with the ride service that owns the auto-complete timers.
func wireServer(
	ctx context.Context,
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	publishers *app.Publishers,
	advisor ai.RouteAdvisor,
	logger *slog.Logger,
	cfg *config.Config,
) (*http.Server, *service.RideService, error) {
	// Initialize Redis stores.
	quoteCache := internalRedis.NewQuoteCache(redisClient, cfg.Redis.QuoteTTL)

	// Initialize repositories.
	fleetRepo := postgres.NewFleetRepository(db)
	scheduledRepo := postgres.NewScheduledRideRepository(db)

	// Restore fleet state.
	store := service.NewFleetStore(fleetRepo)
	if err := store.Load(ctx); err != nil {
		return nil, nil, err
	}

	// Initialize services.
	notificationService := service.NewNotificationService(logger, publishers.List()...)
	rideService := service.NewRideService(store, service.NewRouteEstimator(nil), service.RideServiceOptions{
		AutoCompleteAfter: cfg.Dispatch.AutoCompleteAfter,
		AutoCompleteRetry: cfg.Dispatch.AutoCompleteRetry,
		Quotes:            quoteCache,
		Notifier:          notificationService,
		Logger:            logger,
	})
	scheduledService := service.NewScheduledRideService(scheduledRepo, store, service.ScheduledRideServiceOptions{
		Notifier: notificationService,
		Logger:   logger,
	})
	fleetService := service.NewFleetService(store, scheduledService, notificationService, logger)

	rideService.Resume()

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:          handler.NewRideHandler(rideService),
		FleetHandler:         handler.NewFleetHandler(fleetService, scheduledService, publishers.Hub, logger),
		ScheduledRideHandler: handler.NewScheduledRideHandler(scheduledService),
		AdviceHandler:        handler.NewAdviceHandler(advisor),
		RedisClient:          redisClient,
		NewRelicApp:          nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, rideService, nil
}
