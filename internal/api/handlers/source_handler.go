package handlers

import (
	"net/http"

	"github.com/azukiapp/tasks-service/internal/client"
	"github.com/azukiapp/tasks-service/internal/models"
)

// SourceHandler exposes source-side discovery so a caller can find the
// workspace and project names to put in a run request.
type SourceHandler struct {
	src client.SourceClient
}

func NewSourceHandler(src client.SourceClient) *SourceHandler {
	return &SourceHandler{src: src}
}

func (h *SourceHandler) GetWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.src.GetWorkspaces(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error trying to get workspaces: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workspaces": workspaces})
}

func (h *SourceHandler) GetProjects(w http.ResponseWriter, r *http.Request) {
	id := models.ID(r.PathValue("id"))

	projects, err := h.src.GetProjects(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error trying to get projects: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}
