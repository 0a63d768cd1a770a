package fetch

import (
	"context"

	"github.com/azukiapp/tasks-service/internal/client"
	"github.com/azukiapp/tasks-service/internal/logging"
	"github.com/azukiapp/tasks-service/internal/models"
)

const (
	defaultBatchSize   = 10
	defaultMaxAttempts = 5
)

// Options tunes the fetcher. Zero values fall back to defaults.
type Options struct {
	// BatchSize is the window width W: how many detail fetches run
	// concurrently before the next window starts.
	BatchSize int
	// MaxAttempts bounds how often a failing task is retried before it
	// is surfaced as a terminal error.
	MaxAttempts int
	// CompletedSince is passed through to the task listing.
	CompletedSince string
	Clock          Clock
}

// Fetcher retrieves a workspace's task trees from the source tracker
// with bounded concurrency and retry-after backoff.
type Fetcher struct {
	src  client.SourceClient
	log  *logging.Logger
	opts Options
}

// Report summarizes a fetch run. Failed holds the tasks whose retry
// budget ran out, each with its error attached.
type Report struct {
	Tasks      []*models.Task
	Failed     []*models.Task
	TotalCount int
}

func New(src client.SourceClient, log *logging.Logger, opts Options) *Fetcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Fetcher{src: src, log: log, opts: opts}
}

// Run resolves the workspace and the named projects, then fetches every
// task tree. The returned workspace carries the fetched projects and
// tasks; the report lists terminal failures alongside.
func (f *Fetcher) Run(ctx context.Context, workspaceName string, projectNames []string) (*models.Workspace, *Report, error) {
	workspace, err := f.workspaceByName(ctx, workspaceName)
	if err != nil {
		return nil, nil, err
	}

	projects, err := f.projectsByName(ctx, workspace, projectNames)
	if err != nil {
		return nil, nil, err
	}
	workspace.Projects = projects

	report := &Report{}
	for _, project := range projects {
		f.log.Debugf("    Find tasks in %s %s", f.log.Highlight(project.ID.String()), project.Name)

		refs, err := f.src.GetTasks(ctx, project.ID, client.TaskFilter{CompletedSince: f.opts.CompletedSince})
		if err != nil {
			return nil, nil, err
		}

		result, err := f.fetchAll(ctx, refs, false)
		report.TotalCount += len(refs)
		report.Tasks = append(report.Tasks, result.Succeeded...)
		report.Failed = append(report.Failed, result.Failed...)
		if err != nil {
			return workspace, report, err
		}
	}

	workspace.Tasks = report.Tasks
	return workspace, report, nil
}

func (f *Fetcher) workspaceByName(ctx context.Context, name string) (*models.Workspace, error) {
	f.log.Debugf("Find workspace %s", f.log.Highlight(name))

	workspaces, err := f.src.GetWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	for _, ws := range workspaces {
		if ws.Name == name {
			return &models.Workspace{ID: ws.ID, Name: ws.Name}, nil
		}
	}
	return nil, &client.NotFoundError{Kind: "workspace", Name: name}
}

// projectsByName lists the workspace's projects and keeps the requested
// ones, in remote listing order. A requested name with no match is
// fatal for the run.
func (f *Fetcher) projectsByName(ctx context.Context, workspace *models.Workspace, names []string) ([]models.Project, error) {
	f.log.Debugf("  Find projects in %s - %s", f.log.Highlight(workspace.ID.String()), workspace.Name)

	all, err := f.src.GetProjects(ctx, workspace.ID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = false
	}

	var projects []models.Project
	for _, p := range all {
		if _, ok := wanted[p.Name]; ok {
			wanted[p.Name] = true
			projects = append(projects, p)
		}
	}

	for _, name := range names {
		if !wanted[name] {
			return nil, &client.NotFoundError{Kind: "project", Name: name}
		}
	}
	return projects, nil
}
