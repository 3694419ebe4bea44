package handlers

import (
	"context"
	"net/http"

	"github.com/AdvisorySG/mentorship-analytics/internal/application/services"
)

// WorkspaceRefresher rebuilds the analytics workspace on demand
type WorkspaceRefresher interface {
	Refresh(ctx context.Context) (*services.Workspace, error)
}

// WorkspaceHandler serves workspace maintenance endpoints
type WorkspaceHandler struct {
	workspace WorkspaceRefresher
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspace WorkspaceRefresher) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: workspace}
}

// Refresh handles POST /api/workspace/refresh
func (h *WorkspaceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace.Refresh(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ws.Summary())
}
