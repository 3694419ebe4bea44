package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/pkg/querystring"
)

const maxNormalizeBody = 16 << 20

// QueryStringService parses and normalizes raw query strings
type QueryStringService interface {
	Parse(raw string) querystring.ParsedQuery
	Normalize(ctx context.Context, events []entities.WebsiteEvent) ([]entities.NormalizedEvent, error)
	Fields() []string
}

// QueryStringHandler exposes the query-string utilities
type QueryStringHandler struct {
	service QueryStringService
}

// NewQueryStringHandler creates a new query string handler
func NewQueryStringHandler(service QueryStringService) *QueryStringHandler {
	return &QueryStringHandler{service: service}
}

// NormalizeRequest is the body of POST /api/querystring/normalize
type NormalizeRequest struct {
	Events []entities.WebsiteEvent `json:"events"`
}

// NormalizeResponse is the reply to POST /api/querystring/normalize
type NormalizeResponse struct {
	Fields []string                   `json:"fields"`
	Events []entities.NormalizedEvent `json:"events"`
}

// Parse handles GET /api/querystring/parse?query=...
func (h *QueryStringHandler) Parse(w http.ResponseWriter, r *http.Request) {
	parsed := h.service.Parse(r.URL.Query().Get("query"))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"parsed":    parsed,
		"canonical": querystring.Encode(parsed),
	})
}

// Normalize handles POST /api/querystring/normalize
func (h *QueryStringHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNormalizeBody)

	var req NormalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	normalized, err := h.service.Normalize(r.Context(), req.Events)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, NormalizeResponse{
		Fields: h.service.Fields(),
		Events: normalized,
	})
}
