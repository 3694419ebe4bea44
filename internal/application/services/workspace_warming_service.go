package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// WorkspaceWarmingService rebuilds the workspace ahead of its expiry so that
// dashboard requests do not wait for a build.
type WorkspaceWarmingService struct {
	workspace WorkspaceRefresher
}

// NewWorkspaceWarmingService creates a new workspace warming service
func NewWorkspaceWarmingService(workspace WorkspaceRefresher) *WorkspaceWarmingService {
	return &WorkspaceWarmingService{workspace: workspace}
}

// WarmInterval returns the rebuild interval for a workspace TTL
func WarmInterval(ttl time.Duration) time.Duration {
	interval := ttl * 4 / 5
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// Warm builds a fresh workspace
func (s *WorkspaceWarmingService) Warm(ctx context.Context) error {
	ws, err := s.workspace.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Debug().Str("generation", ws.Generation).Msg("Workspace warmed")
	return nil
}

// StartPeriodicWarming warms the workspace in the background now and then
// every interval until ctx is done.
func (s *WorkspaceWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	go func() {
		if err := s.Warm(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial workspace warming failed")
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping workspace warming")
				return
			case <-ticker.C:
				if err := s.Warm(ctx); err != nil {
					log.Warn().Err(err).Msg("Periodic workspace warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("Started periodic workspace warming")
}
