package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AdvisorySG/mentorship-analytics/internal/adapters/database"
	"github.com/AdvisorySG/mentorship-analytics/internal/adapters/search"
	"github.com/AdvisorySG/mentorship-analytics/internal/application/services"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/mysql"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/postgres"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/typesense"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/observability"
	"github.com/AdvisorySG/mentorship-analytics/pkg/config"
)

func main() {
	var lookbackDays int
	var spoolDir string

	flag.IntVar(&lookbackDays, "lookback-days", -1, "Only load events from the last N days (default: EVENT_LOOKBACK_DAYS)")
	flag.StringVar(&spoolDir, "spool-dir", "", "Directory for the temporary mentor index export")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-materialize", cfg.Server.Environment, cfg.Server.LogLevel)

	if lookbackDays < 0 {
		lookbackDays = cfg.Analytics.EventLookbackDays
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	umamiClient, err := mysql.NewClient(ctx, &cfg.Umami)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to umami")
	}
	defer umamiClient.Close()

	pgClient, err := postgres.NewClient(ctx, &cfg.Warehouse)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to warehouse")
	}
	defer pgClient.Close()

	typesenseClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Typesense")
	}

	workspace := services.NewWorkspaceService(
		database.NewUmamiEventAdapter(umamiClient),
		search.NewMentorIndexAdapter(typesenseClient, cfg.Typesense.MentorsCollection),
		database.NewMentorClickAdapter(pgClient),
		services.WorkspaceOptions{
			Fields:           cfg.Analytics.TrackedFields,
			Lookback:         time.Duration(lookbackDays) * 24 * time.Hour,
			MentorPathPrefix: cfg.Analytics.MentorPathPrefix,
			Workers:          cfg.Analytics.NormalizeWorkers,
			SpoolDir:         spoolDir,
		},
		nil,
	)
	defer workspace.Shutdown()

	start := time.Now()
	ws, err := workspace.Refresh(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Workspace build failed")
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Workspace materialized")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ws.Summary()); err != nil {
		log.Error().Err(err).Msg("Failed to write summary")
	}
}
