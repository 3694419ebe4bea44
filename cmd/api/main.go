package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AdvisorySG/mentorship-analytics/internal/adapters/cache"
	"github.com/AdvisorySG/mentorship-analytics/internal/adapters/database"
	"github.com/AdvisorySG/mentorship-analytics/internal/adapters/events"
	"github.com/AdvisorySG/mentorship-analytics/internal/adapters/search"
	"github.com/AdvisorySG/mentorship-analytics/internal/api/handlers"
	"github.com/AdvisorySG/mentorship-analytics/internal/api/middleware"
	"github.com/AdvisorySG/mentorship-analytics/internal/api/routes"
	"github.com/AdvisorySG/mentorship-analytics/internal/application/services"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/mysql"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/postgres"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/redis"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/typesense"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/observability"
	"github.com/AdvisorySG/mentorship-analytics/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment, cfg.Server.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Sources and warehouse
	umamiClient, err := mysql.NewClient(ctx, &cfg.Umami)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize umami MySQL client")
	}
	defer umamiClient.Close()

	pgClient, err := postgres.NewClient(ctx, &cfg.Warehouse)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	typesenseClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Typesense client")
	}

	// Redis is optional; dashboards are served uncached without it.
	var cacheMiddleware *middleware.CacheMiddleware
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, dashboard responses will not be cached")
	} else {
		defer redisClient.Close()
	}

	eventAdapter := database.NewUmamiEventAdapter(umamiClient)
	clickAdapter := database.NewMentorClickAdapter(pgClient)
	indexAdapter := search.NewMentorIndexAdapter(typesenseClient, cfg.Typesense.MentorsCollection)

	var since time.Duration
	if cfg.Analytics.EventLookbackDays > 0 {
		since = time.Duration(cfg.Analytics.EventLookbackDays) * 24 * time.Hour
	}

	workspaceService := services.NewWorkspaceService(
		eventAdapter,
		indexAdapter,
		clickAdapter,
		services.WorkspaceOptions{
			Fields:           cfg.Analytics.TrackedFields,
			TTL:              cfg.Analytics.WorkspaceTTL,
			Lookback:         since,
			MentorPathPrefix: cfg.Analytics.MentorPathPrefix,
			Workers:          cfg.Analytics.NormalizeWorkers,
		},
		metrics,
	)
	defer workspaceService.Shutdown()

	dashboardService := services.NewDashboardService(
		workspaceService,
		clickAdapter,
		services.DashboardOptions{
			Fields:       cfg.Analytics.TrackedFields,
			SwitchField:  cfg.Analytics.SwitchField,
			SwitchWindow: cfg.Analytics.SwitchWindow,
			Workers:      cfg.Analytics.NormalizeWorkers,
		},
		metrics,
	)
	queryStringService := services.NewQueryStringService(workspaceService.Normalizer())

	// Manual refreshes are broadcast to the other instances through Redis.
	var refresher handlers.WorkspaceRefresher = workspaceService
	if redisClient != nil {
		eventBus := events.NewRedisEventBus(redisClient.Client())
		defer eventBus.Close()

		syncService := services.NewWorkspaceSyncService(workspaceService, eventBus)
		if err := syncService.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start workspace sync")
		} else {
			defer syncService.Stop()
			refresher = syncService
		}

		cacheMiddleware = middleware.NewCacheMiddleware(
			cache.NewRedisAdapter(redisClient.Client()),
			workspaceService.CacheVersion,
			cfg.Server.CacheTTL,
			metrics,
			"/api/dashboards",
		)
	}

	router := routes.NewRouter(
		handlers.NewDashboardHandler(dashboardService),
		handlers.NewQueryStringHandler(queryStringService),
		handlers.NewWorkspaceHandler(refresher),
		cacheMiddleware,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	// Rebuild ahead of expiry so dashboard requests do not wait for a build.
	services.NewWorkspaceWarmingService(workspaceService).
		StartPeriodicWarming(ctx, services.WarmInterval(cfg.Analytics.WorkspaceTTL))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
