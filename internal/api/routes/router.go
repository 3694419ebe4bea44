package routes

import (
	"net/http"

	"github.com/AdvisorySG/mentorship-analytics/internal/api/handlers"
	"github.com/AdvisorySG/mentorship-analytics/internal/api/middleware"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	dashboardHandler   *handlers.DashboardHandler
	queryStringHandler *handlers.QueryStringHandler
	workspaceHandler   *handlers.WorkspaceHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	dashboardHandler *handlers.DashboardHandler,
	queryStringHandler *handlers.QueryStringHandler,
	workspaceHandler *handlers.WorkspaceHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		dashboardHandler:   dashboardHandler,
		queryStringHandler: queryStringHandler,
		workspaceHandler:   workspaceHandler,
		cacheMiddleware:    cacheMiddleware,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Dashboard endpoints
	r.mux.HandleFunc("GET /api/dashboards/overview", r.dashboardHandler.Overview)
	r.mux.HandleFunc("GET /api/dashboards/switches", r.dashboardHandler.Switches)
	r.mux.HandleFunc("GET /api/dashboards/clicks-impressions", r.dashboardHandler.ClickImpressions)
	r.mux.HandleFunc("GET /api/dashboards/filter-trends", r.dashboardHandler.FilterTrends)
	r.mux.HandleFunc("GET /api/dashboards/sessions", r.dashboardHandler.Sessions)
	r.mux.HandleFunc("GET /api/dashboards/screentime", r.dashboardHandler.Screentime)
	r.mux.HandleFunc("GET /api/dashboards/mentors", r.dashboardHandler.MentorCounts)
	r.mux.HandleFunc("GET /api/dashboards/clicks/explore", r.dashboardHandler.ExploreClicks)

	// Query string utilities
	r.mux.HandleFunc("GET /api/querystring/parse", r.queryStringHandler.Parse)
	r.mux.HandleFunc("POST /api/querystring/normalize", r.queryStringHandler.Normalize)

	// Workspace maintenance
	if r.workspaceHandler != nil {
		r.mux.HandleFunc("POST /api/workspace/refresh", r.workspaceHandler.Refresh)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	// Logging sits outside the cache so hits are logged too.
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
