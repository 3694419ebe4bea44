package handlers

import (
	"context"
	"net/http"

	"github.com/AdvisorySG/mentorship-analytics/internal/application/services"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

// DashboardService computes the dashboard payloads
type DashboardService interface {
	Overview(ctx context.Context, field string) (*entities.Overview, error)
	Switches(ctx context.Context, q services.SwitchQuery) (*entities.SwitchReport, error)
	ClickImpressions(ctx context.Context, field string, limit int) (*entities.ClickImpressionReport, error)
	FilterTrends(ctx context.Context, field string, limit int) (*entities.FilterTrendReport, error)
	Sessions(ctx context.Context, months int, simplify bool) (*entities.SessionReport, error)
	Screentime(ctx context.Context) (*entities.ScreentimeSummary, error)
	MentorCounts(ctx context.Context, field string, top int) ([]entities.ValueCount, error)
	ExploreClicks(ctx context.Context, filters map[string]string) (*entities.ExploreResult, error)
}

// DashboardHandler serves the dashboard endpoints
type DashboardHandler struct {
	service DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview handles GET /api/dashboards/overview
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context(), r.URL.Query().Get("field"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}

// Switches handles GET /api/dashboards/switches
func (h *DashboardHandler) Switches(w http.ResponseWriter, r *http.Request) {
	q := services.SwitchQuery{Field: r.URL.Query().Get("field")}
	var err error
	if q.Window, err = durationParam(r, "window"); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if q.IncludeStayed, err = boolParam(r, "include_stayed"); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if q.SkipEmpty, err = boolParam(r, "skip_empty"); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if q.ByVisit, err = boolParam(r, "by_visit"); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	report, err := h.service.Switches(r.Context(), q)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// ClickImpressions handles GET /api/dashboards/clicks-impressions
func (h *DashboardHandler) ClickImpressions(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 5)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	report, err := h.service.ClickImpressions(r.Context(), r.URL.Query().Get("field"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// FilterTrends handles GET /api/dashboards/filter-trends
func (h *DashboardHandler) FilterTrends(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 10)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	report, err := h.service.FilterTrends(r.Context(), r.URL.Query().Get("field"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// Sessions handles GET /api/dashboards/sessions
func (h *DashboardHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "months", 3)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	simplify, err := boolParam(r, "simplify")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	report, err := h.service.Sessions(r.Context(), months, simplify)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// Screentime handles GET /api/dashboards/screentime
func (h *DashboardHandler) Screentime(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Screentime(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// MentorCounts handles GET /api/dashboards/mentors
func (h *DashboardHandler) MentorCounts(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", 20)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	field := r.URL.Query().Get("field")
	if field == "" {
		field = "industries"
	}
	counts, err := h.service.MentorCounts(r.Context(), field, top)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"field":  field,
		"counts": counts,
	})
}

// ExploreClicks handles GET /api/dashboards/clicks/explore. Every query
// parameter is a column filter.
func (h *DashboardHandler) ExploreClicks(w http.ResponseWriter, r *http.Request) {
	filters := make(map[string]string)
	for column, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[column] = values[len(values)-1]
		}
	}
	result, err := h.service.ExploreClicks(r.Context(), filters)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
