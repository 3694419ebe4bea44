package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorySG/mentorship-analytics/internal/analysis"
	"github.com/AdvisorySG/mentorship-analytics/internal/api/handlers"
	"github.com/AdvisorySG/mentorship-analytics/internal/application/services"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
)

func newQueryStringHandler() *handlers.QueryStringHandler {
	normalizer := analysis.NewNormalizer([]string{"industries", "organisation"}, 2)
	return handlers.NewQueryStringHandler(services.NewQueryStringService(normalizer))
}

func TestQueryStringHandler_Parse(t *testing.T) {
	raw := "q=law&filters[0][field]=industries&filters[0][values][0]=Banking%20%26%20Finance&filters[0][type]=all"
	target := "/api/querystring/parse?" + url.Values{"query": {raw}}.Encode()

	w := httptest.NewRecorder()
	newQueryStringHandler().Parse(w, httptest.NewRequest(http.MethodGet, target, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Parsed struct {
			SearchQuery *string `json:"search_query"`
			Filters     map[string]struct {
				Type   *string  `json:"type"`
				Values []string `json:"values"`
			} `json:"filters"`
		} `json:"parsed"`
		Canonical string `json:"canonical"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.NotNil(t, body.Parsed.SearchQuery)
	assert.Equal(t, "law", *body.Parsed.SearchQuery)
	assert.Equal(t, []string{"Banking & Finance"}, body.Parsed.Filters["industries"].Values)
	assert.NotEmpty(t, body.Canonical)
}

func TestQueryStringHandler_ParseEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	newQueryStringHandler().Parse(w, httptest.NewRequest(http.MethodGet, "/api/querystring/parse", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"parsed":{},"canonical":""}`, w.Body.String())
}

func TestQueryStringHandler_Normalize(t *testing.T) {
	events := []entities.WebsiteEvent{
		{
			EventID:   "e1",
			SessionID: "s1",
			VisitID:   "v1",
			CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			URLPath:   "/",
			URLQuery:  "filters[0][field]=industries&filters[0][values][0]=Banking",
			EventType: entities.EventTypePageView,
		},
		{
			EventID:   "e2",
			SessionID: "s1",
			VisitID:   "v1",
			CreatedAt: time.Date(2024, 3, 1, 9, 1, 0, 0, time.UTC),
			URLPath:   "/",
			EventType: entities.EventTypePageView,
		},
	}
	payload, err := json.Marshal(handlers.NormalizeRequest{Events: events})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	newQueryStringHandler().Normalize(w, httptest.NewRequest(http.MethodPost, "/api/querystring/normalize", strings.NewReader(string(payload))))

	require.Equal(t, http.StatusOK, w.Code)
	var got handlers.NormalizeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, []string{"industries", "organisation"}, got.Fields)
	require.Len(t, got.Events, 2)
	assert.Equal(t, []string{"Banking"}, got.Events[0].Filters["industries"])
	assert.Empty(t, got.Events[1].Filters["industries"])
}

func TestQueryStringHandler_NormalizeInvalidBody(t *testing.T) {
	w := httptest.NewRecorder()
	newQueryStringHandler().Normalize(w, httptest.NewRequest(http.MethodPost, "/api/querystring/normalize", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, w))
}

func TestQueryStringHandler_NormalizeTooManyRows(t *testing.T) {
	payload, err := json.Marshal(handlers.NormalizeRequest{Events: make([]entities.WebsiteEvent, services.MaxNormalizeBatch+1)})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	newQueryStringHandler().Normalize(w, httptest.NewRequest(http.MethodPost, "/api/querystring/normalize", strings.NewReader(string(payload))))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubRefresher struct {
	ws  *services.Workspace
	err error
}

func (s *stubRefresher) Refresh(ctx context.Context) (*services.Workspace, error) {
	return s.ws, s.err
}

func TestWorkspaceHandler_Refresh(t *testing.T) {
	loadedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	refresher := &stubRefresher{ws: &services.Workspace{
		Generation:   "gen-7",
		LoadedAt:     loadedAt,
		Events:       make([]entities.WebsiteEvent, 3),
		Sessions:     make([]entities.Session, 2),
		Profiles:     make([]entities.MentorProfile, 5),
		MentorClicks: make([]entities.MentorClick, 1),
	}}

	w := httptest.NewRecorder()
	handlers.NewWorkspaceHandler(refresher).Refresh(w, httptest.NewRequest(http.MethodPost, "/api/workspace/refresh", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got services.WorkspaceSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, services.WorkspaceSummary{
		Generation:   "gen-7",
		LoadedAt:     loadedAt,
		Events:       3,
		Sessions:     2,
		Profiles:     5,
		MentorClicks: 1,
	}, got)
}

func TestWorkspaceHandler_RefreshFailure(t *testing.T) {
	refresher := &stubRefresher{err: apperrors.NewExternalError("failed to export mentor index", errors.New("timeout"))}

	w := httptest.NewRecorder()
	handlers.NewWorkspaceHandler(refresher).Refresh(w, httptest.NewRequest(http.MethodPost, "/api/workspace/refresh", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, apperrors.RetryMessage, decodeError(t, w))
}
