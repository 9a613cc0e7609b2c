package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talentmap/bidding-api/docs"
	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/database"
	"github.com/talentmap/bidding-api/internal/events"
	"github.com/talentmap/bidding-api/internal/http/handler"
	"github.com/talentmap/bidding-api/internal/http/middleware"
	"github.com/talentmap/bidding-api/internal/http/router"
	"github.com/talentmap/bidding-api/internal/jobs"
	"github.com/talentmap/bidding-api/internal/logger"
	"github.com/talentmap/bidding-api/internal/repository"
	"github.com/talentmap/bidding-api/internal/service"
	"github.com/talentmap/bidding-api/internal/telemetry"
	"github.com/talentmap/bidding-api/internal/warehouse"
	"go.uber.org/zap"
)

// @title TalentMap Bidding API
// @version 1.0
// @description Bid lifecycle, handshake negotiation and position ranking for Foreign Service bidding

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

const (
	statisticsJobTimeout   = 10 * time.Minute
	positionSyncJobTimeout = 15 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// In development secrets come from the environment; in staging/production
	// from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, &cfg.Telemetry)
	if err != nil {
		log.Warn("Tracing setup failed, continuing without it", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	checks := make(map[string]router.DependencyCheck)

	// Redis carries transition events to subscribers; without it events are dropped
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Redis.Addr != "" {
		redisPublisher, err := events.NewRedisPublisher(&cfg.Redis, log)
		if err != nil {
			log.Warn("Redis connection failed, continuing without event publishing", zap.Error(err))
		} else {
			publisher = redisPublisher
			checks["redis"] = redisPublisher.HealthCheck
			log.Info("Redis event publisher connected", zap.String("addr", cfg.Redis.Addr))
		}
	}
	defer func() { _ = publisher.Close() }()

	// The warehouse is read-only and optional; without it the position directory
	// keeps its last snapshot and bidder rankings use local bids
	whClient, err := warehouse.NewClient(&cfg.Warehouse, log)
	if err != nil {
		log.Warn("Warehouse connection failed, continuing without it", zap.Error(err))
		whClient = nil
	}
	if whClient != nil {
		checks["warehouse"] = func(ctx context.Context) error {
			status := whClient.HealthCheck(ctx)
			if status.Status != "healthy" {
				return fmt.Errorf("warehouse %s: %s", status.Status, status.Error)
			}
			return nil
		}
	}

	// Repositories
	bidCycleRepo := repository.NewBidCycleRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	bidderRepo := repository.NewBidderRepository(db)
	accessGrantRepo := repository.NewAccessGrantRepository(db)
	bidRepo := repository.NewBidRepository(db)
	handshakeRepo := repository.NewHandshakeRepository(db)
	rankingRepo := repository.NewRankingRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	permissionService := service.NewPermissionService(accessGrantRepo, bidderRepo, positionRepo, log)
	statisticsService := service.NewStatisticsService(bidRepo, bidderRepo, bidCycleRepo, statisticsRepo, permissionService, log)
	notificationService := service.NewNotificationService(notificationRepo, bidRepo, bidderRepo, publisher, log)
	bidService := service.NewBidService(bidRepo, bidCycleRepo, permissionService, statisticsService, notificationService, &cfg.Bidding, db, log)
	handshakeService := service.NewHandshakeService(handshakeRepo, permissionService, notificationService, db, log)

	var bidSource service.ExternalBidSource = service.NewLocalBidSource(bidRepo)
	if whClient != nil {
		bidSource = whClient
	}
	rankingService := service.NewRankingService(rankingRepo, permissionService, bidSource, notificationService, db, log)

	// Middleware
	jwtValidator, err := auth.NewJWTValidator(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT validator: %w", err)
	}
	authMiddleware := auth.NewMiddleware(jwtValidator, cfg.Auth.ApiKey, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	authHandler := handler.NewAuthHandler(permissionService, log)
	bidHandler := handler.NewBidHandler(bidService, log)
	handshakeHandler := handler.NewHandshakeHandler(handshakeService, log)
	rankingHandler := handler.NewRankingHandler(rankingService, log)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		checks,
		authMiddleware,
		rateLimiter,
		authHandler,
		bidHandler,
		handshakeHandler,
		rankingHandler,
		statisticsHandler,
		notificationHandler,
	)

	// Background jobs
	scheduler := jobs.NewScheduler(log)
	if err := jobs.RegisterStatisticsReconcileJob(
		scheduler,
		statisticsService,
		log,
		cfg.Bidding.StatisticsSchedule,
		statisticsJobTimeout,
	); err != nil {
		log.Error("Failed to register statistics reconcile job", zap.Error(err))
	}
	if whClient != nil {
		syncService := service.NewPositionSyncService(whClient, bidCycleRepo, positionRepo, log)
		if err := jobs.RegisterPositionSyncJob(
			scheduler,
			syncService,
			log,
			cfg.Bidding.PositionSyncSchedule,
			positionSyncJobTimeout,
			true, // refresh the position directory on startup
		); err != nil {
			log.Error("Failed to register position sync job", zap.Error(err))
		}
	} else {
		log.Info("Position sync disabled", zap.Bool("warehouse_enabled", cfg.Warehouse.Enabled))
	}
	scheduler.Start()
	log.Info("Scheduler started", zap.Strings("jobs", scheduler.JobNames()))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		stopped := scheduler.Stop()
		<-stopped.Done()
		log.Info("Scheduler stopped")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if whClient != nil {
			if err := whClient.Close(); err != nil {
				log.Warn("Error closing warehouse connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
