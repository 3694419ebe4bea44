package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AdvisorySG/mentorship-analytics/internal/analysis"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/repositories"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/observability"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
)

// Workspace is one materialized snapshot of the analytics sources. It is
// read-only once built and may be shared between requests.
type Workspace struct {
	Generation   string
	LoadedAt     time.Time
	Events       []entities.WebsiteEvent
	Sessions     []entities.Session
	Profiles     []entities.MentorProfile
	Normalized   []entities.NormalizedEvent
	MentorClicks []entities.MentorClick

	spoolPath string
}

// WorkspaceSummary counts the rows held by a workspace
type WorkspaceSummary struct {
	Generation   string    `json:"generation"`
	LoadedAt     time.Time `json:"loaded_at"`
	Events       int       `json:"events"`
	Sessions     int       `json:"sessions"`
	Profiles     int       `json:"profiles"`
	MentorClicks int       `json:"mentor_clicks"`
}

// Summary describes the workspace without its rows
func (w *Workspace) Summary() WorkspaceSummary {
	return WorkspaceSummary{
		Generation:   w.Generation,
		LoadedAt:     w.LoadedAt,
		Events:       len(w.Events),
		Sessions:     len(w.Sessions),
		Profiles:     len(w.Profiles),
		MentorClicks: len(w.MentorClicks),
	}
}

func (w *Workspace) removeSpool() {
	if w == nil || w.spoolPath == "" {
		return
	}
	if err := os.Remove(w.spoolPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", w.spoolPath).Msg("Failed to remove mentor index spool")
	}
	w.spoolPath = ""
}

// WorkspaceProvider hands out the current workspace
type WorkspaceProvider interface {
	Get(ctx context.Context) (*Workspace, error)
}

// WorkspaceOptions configures how a workspace is built
type WorkspaceOptions struct {
	Fields           []string
	TTL              time.Duration
	Lookback         time.Duration
	MentorPathPrefix string
	Workers          int
	// SpoolDir holds the temporary mentor index export. Empty means the
	// system temp directory.
	SpoolDir string
}

// WorkspaceService caches a single workspace for TTL. Builds are serialized;
// a failed build leaves the previous workspace in place.
type WorkspaceService struct {
	events     repositories.EventRepository
	index      repositories.MentorIndexRepository
	clicks     repositories.MentorClickRepository
	normalizer *analysis.Normalizer
	opts       WorkspaceOptions
	metrics    *observability.Metrics
	now        func() time.Time

	mu      sync.Mutex
	current *Workspace
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(
	events repositories.EventRepository,
	index repositories.MentorIndexRepository,
	clicks repositories.MentorClickRepository,
	opts WorkspaceOptions,
	metrics *observability.Metrics,
) *WorkspaceService {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	return &WorkspaceService{
		events:     events,
		index:      index,
		clicks:     clicks,
		normalizer: analysis.NewNormalizer(opts.Fields, opts.Workers),
		opts:       opts,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Normalizer returns the normalizer used for workspace builds
func (s *WorkspaceService) Normalizer() *analysis.Normalizer {
	return s.normalizer
}

// Get returns the cached workspace, building a new one when none exists or
// the cached one has expired.
func (s *WorkspaceService) Get(ctx context.Context) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fresh() {
		return s.current, nil
	}
	return s.rebuild(ctx)
}

// Refresh rebuilds the workspace regardless of its age
func (s *WorkspaceService) Refresh(ctx context.Context) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rebuild(ctx)
}

// CacheVersion returns the generation of the live workspace, or "" when
// there is none or it has expired.
func (s *WorkspaceService) CacheVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fresh() {
		return ""
	}
	return s.current.Generation
}

// Shutdown drops the workspace and removes its temporary files
func (s *WorkspaceService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.removeSpool()
	s.current = nil
	log.Info().Msg("Workspace released")
}

func (s *WorkspaceService) fresh() bool {
	return s.current != nil && s.now().Sub(s.current.LoadedAt) < s.opts.TTL
}

func (s *WorkspaceService) rebuild(ctx context.Context) (*Workspace, error) {
	ctx, span := observability.StartSpan(ctx, "workspace.build",
		attribute.StringSlice("workspace.fields", s.opts.Fields))
	defer span.End()

	start := time.Now()
	ws, err := s.build(ctx)
	events := 0
	if ws != nil {
		events = len(ws.Normalized)
	}
	observability.RecordWorkspaceBuild(ctx, s.metrics, time.Since(start), events, err)
	if err != nil {
		observability.RecordError(span, err)
		log.Error().Err(err).Msg("Workspace build failed")
		return nil, err
	}

	s.current.removeSpool()
	s.current = ws

	log.Info().
		Str("generation", ws.Generation).
		Int("events", len(ws.Events)).
		Int("sessions", len(ws.Sessions)).
		Int("profiles", len(ws.Profiles)).
		Int("mentor_clicks", len(ws.MentorClicks)).
		Dur("took", time.Since(start)).
		Msg("Workspace built")
	return ws, nil
}

func (s *WorkspaceService) build(ctx context.Context) (*Workspace, error) {
	ws := &Workspace{Generation: uuid.NewString(), LoadedAt: s.now()}

	var since time.Time
	if s.opts.Lookback > 0 {
		since = ws.LoadedAt.Add(-s.opts.Lookback)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, profiles, err := s.spoolProfiles(gctx)
		ws.spoolPath, ws.Profiles = path, profiles
		return err
	})
	g.Go(func() error {
		var err error
		ws.Events, err = s.events.ListWebsiteEvents(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		ws.Sessions, err = s.events.ListSessions(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		ws.removeSpool()
		return nil, err
	}

	normalized, err := s.normalizer.NormalizeBatch(ctx, ws.Events)
	if err != nil {
		ws.removeSpool()
		return nil, apperrors.NewInternalError("workspace build cancelled", err)
	}
	ws.Normalized = normalized
	ws.MentorClicks = s.normalizer.SelectMentorClicks(ws.Events, s.opts.MentorPathPrefix)

	if err := s.clicks.ReplaceMentorClicks(ctx, s.normalizer.Fields(), ws.MentorClicks); err != nil {
		ws.removeSpool()
		return nil, err
	}

	return ws, nil
}

// spoolProfiles exports the mentor index into a temporary NDJSON file and
// reads it back.
func (s *WorkspaceService) spoolProfiles(ctx context.Context) (string, []entities.MentorProfile, error) {
	f, err := os.CreateTemp(s.opts.SpoolDir, "mentor-index-*.ndjson")
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to create mentor index spool", err)
	}
	defer f.Close()

	fail := func(err error) (string, []entities.MentorProfile, error) {
		if rmErr := os.Remove(f.Name()); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", f.Name()).Msg("Failed to remove mentor index spool")
		}
		return "", nil, err
	}

	n, err := s.index.ExportProfiles(ctx, f)
	if err != nil {
		return fail(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fail(apperrors.NewInternalError("failed to rewind mentor index spool", err))
	}

	profiles := make([]entities.MentorProfile, 0, n)
	dec := json.NewDecoder(f)
	for {
		var p entities.MentorProfile
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fail(apperrors.NewInternalError("failed to decode mentor index spool", err))
		}
		profiles = append(profiles, p)
	}

	return f.Name(), profiles, nil
}
