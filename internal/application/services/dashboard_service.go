package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AdvisorySG/mentorship-analytics/internal/analysis"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/repositories"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/observability"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
)

const (
	overviewPeriod  = 28 * 24 * time.Hour
	overviewPeriods = 6
)

// SessionCategories are the session attributes broken down on the sessions
// dashboard.
var SessionCategories = []string{"browser", "os", "device", "language", "country"}

// DashboardOptions holds the defaults applied to dashboard queries
type DashboardOptions struct {
	Fields       []string
	SwitchField  string
	SwitchWindow time.Duration
	Workers      int
}

// SwitchQuery selects what the switch dashboard analyzes. Zero values fall
// back to the configured defaults.
type SwitchQuery struct {
	Field         string
	Window        time.Duration
	IncludeStayed bool
	SkipEmpty     bool
	ByVisit       bool
}

// DashboardService computes dashboard payloads from the workspace and the
// warehouse.
type DashboardService struct {
	workspace WorkspaceProvider
	clicks    repositories.MentorClickRepository
	opts      DashboardOptions
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	workspace WorkspaceProvider,
	clicks repositories.MentorClickRepository,
	opts DashboardOptions,
	metrics *observability.Metrics,
) *DashboardService {
	return &DashboardService{
		workspace: workspace,
		clicks:    clicks,
		opts:      opts,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (s *DashboardService) field(field string) (string, error) {
	if field == "" {
		field = s.opts.SwitchField
	}
	if !slices.Contains(s.opts.Fields, field) {
		return "", apperrors.NewValidationError(fmt.Sprintf("field %q is not tracked", field))
	}
	return field, nil
}

// Overview reports unique visitors and the most popular value of field over
// the last six 28-day periods.
func (s *DashboardService) Overview(ctx context.Context, field string) (*entities.Overview, error) {
	field, err := s.field(field)
	if err != nil {
		return nil, err
	}
	ws, err := s.workspace.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	overview := &entities.Overview{
		GeneratedAt:          now,
		UniqueVisitors:       analysis.UniqueSessions(ws.Events, time.Time{}, now),
		UniqueVisitorsLast24: analysis.UniqueSessions(ws.Events, now.Add(-24*time.Hour), now),
		Field:                field,
		Periods:              analysis.RollingTopValues(ws.Normalized, field, now, overviewPeriod, overviewPeriods),
	}
	if latest := overview.Periods[0]; latest.Value != "" {
		overview.MostPopular = &latest
	}
	return overview, nil
}

// Switches runs the transition analysis over the workspace events
func (s *DashboardService) Switches(ctx context.Context, q SwitchQuery) (*entities.SwitchReport, error) {
	field, err := s.field(q.Field)
	if err != nil {
		return nil, err
	}
	window := q.Window
	if window == 0 {
		window = s.opts.SwitchWindow
	}
	if window < 0 {
		return nil, apperrors.NewValidationError("window must not be negative")
	}

	ws, err := s.workspace.Get(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "dashboard.switches",
		attribute.String("switch.field", field),
		attribute.Int("switch.events", len(ws.Normalized)))
	defer span.End()

	records, err := analysis.AnalyzeSwitches(ctx, ws.Normalized, analysis.SwitchOptions{
		Field:         field,
		Window:        window,
		IncludeStayed: q.IncludeStayed,
		SkipEmpty:     q.SkipEmpty,
		ByVisit:       q.ByVisit,
		Workers:       s.opts.Workers,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewInternalError("switch analysis cancelled", err)
	}

	return &entities.SwitchReport{
		Field:         field,
		WindowSeconds: window.Seconds(),
		IncludeStayed: q.IncludeStayed,
		SkipEmpty:     q.SkipEmpty,
		Records:       len(records),
		Transitions:   analysis.CountTransitions(records),
	}, nil
}

// ClickImpressions ranks values of field by Click and Impression events
func (s *DashboardService) ClickImpressions(ctx context.Context, field string, limit int) (*entities.ClickImpressionReport, error) {
	field, err := s.field(field)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	ws, err := s.workspace.Get(ctx)
	if err != nil {
		return nil, err
	}

	report := analysis.RankClickImpressions(field, analysis.ClickImpressions(ws.Normalized, field), limit)
	return &report, nil
}

// FilterTrends reports the most common single selections of field with their
// monthly and cumulative counts.
func (s *DashboardService) FilterTrends(ctx context.Context, field string, limit int) (*entities.FilterTrendReport, error) {
	field, err := s.field(field)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	// The warehouse table is written by the workspace build.
	if _, err := s.workspace.Get(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	top, err := s.clicks.TopSingleSelections(ctx, field, limit)
	observability.RecordDBMetric(ctx, s.metrics, "top_single_selections", time.Since(start))
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(top))
	for _, vc := range top {
		values = append(values, vc.Value)
	}

	start = time.Now()
	monthly, err := s.clicks.MonthlySelections(ctx, field, values)
	observability.RecordDBMetric(ctx, s.metrics, "monthly_selections", time.Since(start))
	if err != nil {
		return nil, err
	}

	return &entities.FilterTrendReport{
		Field:   field,
		Top:     top,
		Monthly: analysis.Cumulate(monthly),
	}, nil
}

// Sessions counts sessions per calendar period and breaks the sessions of
// the last months down by category. months <= 0 uses every session.
func (s *DashboardService) Sessions(ctx context.Context, months int, simplify bool) (*entities.SessionReport, error) {
	ws, err := s.workspace.Get(ctx)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(ws.Sessions))
	var latest time.Time
	for _, sess := range ws.Sessions {
		times = append(times, sess.CreatedAt)
		if sess.CreatedAt.After(latest) {
			latest = sess.CreatedAt
		}
	}

	var cutoff time.Time
	if months > 0 {
		cutoff = latest.AddDate(0, -months, 0)
	}

	categories := make(map[string][]entities.ShareCount, len(SessionCategories))
	for _, category := range SessionCategories {
		var values []string
		for _, sess := range ws.Sessions {
			if !cutoff.IsZero() && sess.CreatedAt.Before(cutoff) {
				continue
			}
			if v, _ := sess.Attribute(category); v != "" {
				values = append(values, v)
			}
		}
		categories[category] = analysis.Shares(values, simplify)
	}

	return &entities.SessionReport{
		Daily:      analysis.CountByPeriod(times, analysis.Daily),
		Weekly:     analysis.CountByPeriod(times, analysis.Weekly),
		Monthly:    analysis.CountByPeriod(times, analysis.Monthly),
		Quarterly:  analysis.CountByPeriod(times, analysis.Quarterly),
		Yearly:     analysis.CountByPeriod(times, analysis.Yearly),
		Categories: categories,
	}, nil
}

// Screentime summarizes how long sessions last
func (s *DashboardService) Screentime(ctx context.Context) (*entities.ScreentimeSummary, error) {
	ws, err := s.workspace.Get(ctx)
	if err != nil {
		return nil, err
	}
	summary := analysis.Screentime(analysis.SessionDurations(ws.Events))
	return &summary, nil
}

// MentorCounts counts mentor profiles per value of field
func (s *DashboardService) MentorCounts(ctx context.Context, field string, top int) ([]entities.ValueCount, error) {
	ws, err := s.workspace.Get(ctx)
	if err != nil {
		return nil, err
	}
	counts, ok := analysis.MentorFieldCounts(ws.Profiles, field, top)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown mentor field %q", field))
	}
	return counts, nil
}

// ExploreClicks filters mentor clicks by case-insensitive substrings
func (s *DashboardService) ExploreClicks(ctx context.Context, filters map[string]string) (*entities.ExploreResult, error) {
	ws, err := s.workspace.Get(ctx)
	if err != nil {
		return nil, err
	}
	result, err := analysis.ExploreMentorClicks(ws.MentorClicks, s.opts.Fields, filters)
	if err != nil {
		var unknown *analysis.UnknownColumnError
		if errors.As(err, &unknown) {
			return nil, apperrors.NewValidationError(unknown.Error())
		}
		return nil, apperrors.NewInternalError("failed to explore mentor clicks", err)
	}
	return &result, nil
}
