package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/azukiapp/tasks-service/internal/models"
	"github.com/azukiapp/tasks-service/internal/pipeline"
	"github.com/azukiapp/tasks-service/internal/repository"
)

type CreateRunRequestBody struct {
	Workspace   string   `json:"workspace"`
	Projects    []string `json:"projects"`
	DumpPath    string   `json:"dump_path"`
	StoriesPath string   `json:"stories_path"`
}

type PurgeRequestBody struct {
	ProjectIDs []models.ID `json:"project_ids"`
}

type RunHandler struct {
	pipeline *pipeline.Pipeline
	runRepo  *repository.RunRepository
	records  *repository.StoryRecordRepository
}

func NewRunHandler(p *pipeline.Pipeline, runRepo *repository.RunRepository, records *repository.StoryRecordRepository) *RunHandler {
	return &RunHandler{
		pipeline: p,
		runRepo:  runRepo,
		records:  records,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error trying to read the body: " + err.Error(),
		})
		return
	}

	var reqBody CreateRunRequestBody
	if err := json.Unmarshal(body, &reqBody); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "JSON error: " + err.Error(),
		})
		return
	}
	if reqBody.Workspace == "" || len(reqBody.Projects) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "workspace and projects are required",
		})
		return
	}
	if reqBody.DumpPath == "" {
		reqBody.DumpPath = "dump.json"
	}
	if reqBody.StoriesPath == "" {
		reqBody.StoriesPath = "normalized.json"
	}

	runID, err := h.pipeline.StartMigration(
		reqBody.Workspace,
		reqBody.Projects,
		reqBody.DumpPath,
		reqBody.StoriesPath,
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error trying to start run: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":  runID,
		"status":  "running",
		"message": "Migration initiated successfully",
	})
}

func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := h.runRepo.GetRun(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error trying to get run: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": run})
}

func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runRepo.GetRuns()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error trying to get runs: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *RunHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	records, err := h.records.GetByRunID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error trying to get story records: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *RunHandler) Purge(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error trying to read the body: " + err.Error(),
		})
		return
	}

	var reqBody PurgeRequestBody
	if err := json.Unmarshal(body, &reqBody); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "JSON error: " + err.Error(),
		})
		return
	}

	if err := h.pipeline.Purge(r.Context(), reqBody.ProjectIDs); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error trying to purge projects: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}
