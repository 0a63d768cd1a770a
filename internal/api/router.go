package api

import (
	"database/sql"
	"net/http"

	"github.com/azukiapp/tasks-service/internal/api/handlers"
	"github.com/azukiapp/tasks-service/internal/client"
	"github.com/azukiapp/tasks-service/internal/fetch"
	"github.com/azukiapp/tasks-service/internal/logging"
	"github.com/azukiapp/tasks-service/internal/mapping"
	"github.com/azukiapp/tasks-service/internal/pipeline"
	"github.com/azukiapp/tasks-service/internal/repository"
)

func SetupRouter(
	db *sql.DB,
	src client.SourceClient,
	dst client.TargetClient,
	cfg *mapping.Config,
	log *logging.Logger,
	fetchOpts fetch.Options,
) *http.ServeMux {
	mux := http.NewServeMux()

	runRepo := repository.NewRunRepository(db)
	recordRepo := repository.NewStoryRecordRepository(db)

	p := pipeline.New(src, dst, cfg, log, runRepo, recordRepo, fetchOpts)

	runHandler := handlers.NewRunHandler(p, runRepo, recordRepo)
	sourceHandler := handlers.NewSourceHandler(src)

	mux.HandleFunc("POST /runs", runHandler.CreateRun)
	mux.HandleFunc("GET /runs/{id}", runHandler.GetRun)
	mux.HandleFunc("GET /runs/{id}/records", runHandler.ListRecords)
	mux.HandleFunc("GET /runs", runHandler.ListRuns)
	mux.HandleFunc("POST /purge", runHandler.Purge)

	mux.HandleFunc("GET /source/workspaces", sourceHandler.GetWorkspaces)
	mux.HandleFunc("GET /source/workspaces/{id}/projects", sourceHandler.GetProjects)

	return mux
}
