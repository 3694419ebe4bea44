package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/providers"
)

// WorkspaceRefresher forces a workspace rebuild
type WorkspaceRefresher interface {
	Refresh(ctx context.Context) (*Workspace, error)
}

const syncRefreshTimeout = 5 * time.Minute

// WorkspaceSyncService propagates manual refreshes between API instances.
// A refresh requested on one instance is announced on the event bus and every
// other instance rebuilds its own workspace.
type WorkspaceSyncService struct {
	workspace  WorkspaceRefresher
	eventBus   providers.EventBus
	instanceID string
	now        func() time.Time
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkspaceSyncService creates a new workspace sync service
func NewWorkspaceSyncService(workspace WorkspaceRefresher, eventBus providers.EventBus) *WorkspaceSyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkspaceSyncService{
		workspace:  workspace,
		eventBus:   eventBus,
		instanceID: uuid.NewString(),
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins listening for refreshes announced by other instances
func (s *WorkspaceSyncService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelWorkspaceRefresh)
	if err != nil {
		return fmt.Errorf("failed to subscribe to workspace refreshes: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Str("instance", s.instanceID).Msg("Workspace sync started")
	return nil
}

// Stop stops listening for refreshes
func (s *WorkspaceSyncService) Stop() {
	s.cancel()
	log.Info().Msg("Workspace sync stopped")
}

// Refresh rebuilds the local workspace and announces it. A failed
// announcement does not fail the refresh.
func (s *WorkspaceSyncService) Refresh(ctx context.Context) (*Workspace, error) {
	ws, err := s.workspace.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	event := &entities.WorkspaceEvent{
		ID:         uuid.NewString(),
		Origin:     s.instanceID,
		Generation: ws.Generation,
		Timestamp:  s.now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelWorkspaceRefresh, event); err != nil {
		log.Warn().Err(err).Str("generation", ws.Generation).Msg("Failed to announce workspace refresh")
	}
	return ws, nil
}

func (s *WorkspaceSyncService) processEvents(eventChan <-chan *entities.WorkspaceEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent rebuilds the local workspace unless the event came from this
// instance.
func (s *WorkspaceSyncService) handleEvent(event *entities.WorkspaceEvent) {
	if event.Origin == s.instanceID {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, syncRefreshTimeout)
	defer cancel()

	log.Info().Str("origin", event.Origin).Str("generation", event.Generation).Msg("Rebuilding workspace after remote refresh")
	if _, err := s.workspace.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Remote-triggered workspace refresh failed")
	}
}
