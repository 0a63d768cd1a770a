package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Run is one migration run moving through the pipeline stages.
type Run struct {
	ID             string
	Workspace      string
	Projects       []string
	Stage          string
	Status         string
	TotalTasks     int
	SucceededTasks int
	FailedTasks    int
	StartedAt      time.Time
	CompletedAt    *time.Time
}

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Create(run *Run) error {
	query := `
	INSERT INTO runs (id, workspace, projects, stage, status, total_tasks)
        VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.Workspace,
		strings.Join(run.Projects, ","),
		run.Stage,
		run.Status,
		run.TotalTasks,
	)

	if err != nil {
		return fmt.Errorf("Error trying to create the run: %w", err)
	}
	return nil
}

func (r *RunRepository) UpdateStage(id, stage string) error {
	query := `UPDATE runs SET stage = ? WHERE id = ?`
	_, err := r.db.Exec(query, stage, id)
	return err
}

func (r *RunRepository) UpdateProgress(id string, total, succeeded, failed int) error {
	query := `UPDATE runs SET total_tasks = ?, succeeded_tasks = ?, failed_tasks = ? WHERE id = ?`
	_, err := r.db.Exec(query, total, succeeded, failed, id)
	return err
}

func (r *RunRepository) Complete(id, status string) error {
	query := `UPDATE runs SET status = ?, completed_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, status, id)
	return err
}

func (r *RunRepository) GetRuns() ([]Run, error) {
	query := `
	SELECT id, workspace, projects, stage, status, total_tasks, succeeded_tasks,
	       failed_tasks, started_at, completed_at
	FROM runs ORDER BY started_at
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("Error trying to get runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *RunRepository) GetRun(id string) (Run, error) {
	query := `
	SELECT id, workspace, projects, stage, status, total_tasks, succeeded_tasks,
	       failed_tasks, started_at, completed_at
	FROM runs WHERE id = ?
	`
	run, err := scanRun(r.db.QueryRow(query, id).Scan)
	if err != nil {
		return Run{}, fmt.Errorf("Error trying to get run: %w", err)
	}
	return run, nil
}

func scanRun(scan func(dest ...any) error) (Run, error) {
	var run Run
	var projects string
	err := scan(
		&run.ID,
		&run.Workspace,
		&projects,
		&run.Stage,
		&run.Status,
		&run.TotalTasks,
		&run.SucceededTasks,
		&run.FailedTasks,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return Run{}, err
	}
	if projects != "" {
		run.Projects = strings.Split(projects, ",")
	}
	return run, nil
}
