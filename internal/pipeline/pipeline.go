package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/azukiapp/tasks-service/internal/client"
	"github.com/azukiapp/tasks-service/internal/fetch"
	"github.com/azukiapp/tasks-service/internal/logging"
	"github.com/azukiapp/tasks-service/internal/mapping"
	"github.com/azukiapp/tasks-service/internal/models"
	"github.com/azukiapp/tasks-service/internal/repository"
)

// Pipeline sequences the migration stages. Every stage reads and/or
// writes a persisted artifact, so each one can be re-run without
// repeating upstream work. Run bookkeeping in sqlite is optional: both
// repositories may be nil.
type Pipeline struct {
	src       client.SourceClient
	dst       client.TargetClient
	cfg       *mapping.Config
	log       *logging.Logger
	runs      *repository.RunRepository
	records   *repository.StoryRecordRepository
	fetchOpts fetch.Options
}

func New(
	src client.SourceClient,
	dst client.TargetClient,
	cfg *mapping.Config,
	log *logging.Logger,
	runs *repository.RunRepository,
	records *repository.StoryRecordRepository,
	fetchOpts fetch.Options,
) *Pipeline {
	return &Pipeline{
		src:       src,
		dst:       dst,
		cfg:       cfg,
		log:       log,
		runs:      runs,
		records:   records,
		fetchOpts: fetchOpts,
	}
}

// MapReport summarizes the map stage.
type MapReport struct {
	Total    int
	Dropped  int
	Excluded int
	Stories  int
}

// PushReport summarizes the push stage. Errors enumerates per-story
// failures; the stage never aborts on one.
type PushReport struct {
	Pushed int
	Failed int
	Errors []string
}

// Fetch retrieves the workspace's task trees and writes the raw dump
// artifact. The report's Failed list holds tasks whose retry budget ran
// out; the run continues with the partial set.
func (p *Pipeline) Fetch(ctx context.Context, runID, workspaceName string, projectNames []string, dumpPath string) (*fetch.Report, error) {
	start := time.Now()
	fetcher := fetch.New(p.src, p.log, p.fetchOpts)

	workspace, report, err := fetcher.Run(ctx, workspaceName, projectNames)
	if err != nil {
		return report, err
	}

	if err := writeArtifact(dumpPath, workspace); err != nil {
		return report, err
	}
	p.log.Infof("Fetched %s of %s tasks in %s, saved %s",
		humanize.Comma(int64(len(report.Tasks))),
		humanize.Comma(int64(report.TotalCount)),
		time.Since(start).Round(time.Millisecond),
		p.log.Highlight(dumpPath))

	for _, failed := range report.Failed {
		p.log.Errorf("task %s (%s) not fetched: %s", failed.ID, failed.Name, failed.Err)
	}

	if p.runs != nil && runID != "" {
		if err := p.runs.UpdateProgress(runID, report.TotalCount, len(report.Tasks), len(report.Failed)); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Map rewrites user ids and mentions in the serialized dump, parses it,
// drops tasks that came out null, and maps the rest into the stories
// artifact. A task the engine cannot map is logged and excluded; the
// pass itself never aborts.
func (p *Pipeline) Map(ctx context.Context, dumpPath, storiesPath string) (*MapReport, error) {
	raw, err := os.ReadFile(dumpPath)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", dumpPath, err)
	}
	raw = mapping.ReplaceUsers(raw, p.cfg)

	var workspace models.Workspace
	if err := json.Unmarshal(raw, &workspace); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", dumpPath, err)
	}

	report := &MapReport{Total: len(workspace.Tasks)}
	tasks := make([]*models.Task, 0, len(workspace.Tasks))
	for _, task := range workspace.Tasks {
		if task == nil {
			continue
		}
		tasks = append(tasks, task)
	}
	report.Dropped = report.Total - len(tasks)
	p.log.Debugf("  Normalize %s tasks (%d empty removed)",
		p.log.Highlight(humanize.Comma(int64(len(tasks)))), report.Dropped)

	engine := mapping.NewEngine(p.cfg)
	stories := make([]models.Story, 0, len(tasks))
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		story, ok := mapOne(engine, task)
		if !ok {
			report.Excluded++
			p.log.Errorf("task %s (%s) excluded: mapping failed", task.ID, task.Name)
			continue
		}
		stories = append(stories, story)
	}
	report.Stories = len(stories)

	if err := writeArtifact(storiesPath, stories); err != nil {
		return report, err
	}
	p.log.Infof("%s normalized stories saved to %s (%d excluded)",
		humanize.Comma(int64(len(stories))), p.log.Highlight(storiesPath), report.Excluded)
	return report, nil
}

// mapOne shields the pass from a panic on one malformed task.
func mapOne(engine *mapping.Engine, task *models.Task) (story models.Story, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return engine.MapTask(task), true
}

// Push creates every story from the stories artifact on the target, one
// at a time. Failures are recorded and enumerated, never fatal.
// Duplicate stories on a re-run are accepted: delivery is at-least-once.
func (p *Pipeline) Push(ctx context.Context, runID, storiesPath string) (*PushReport, error) {
	var stories []models.Story
	if err := readArtifact(storiesPath, &stories); err != nil {
		return nil, err
	}

	p.log.Infof("Start push %s stories:", humanize.Comma(int64(len(stories))))
	report := &PushReport{}

	for i, story := range stories {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p.log.Debugf("    %d Push to project %s story %s",
			i+1, p.log.Highlight(story.ProjectID.String()), p.log.Highlight(story.Name))

		created, err := p.dst.CreateStory(ctx, story.ProjectID, story)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", story.Name, err))
			p.log.Errorf("push story %q: %v", story.Name, err)
			p.record(runID, story.Name, "", "failed", err.Error())
			continue
		}
		report.Pushed++
		p.record(runID, story.Name, created.ID.String(), "success", "")
	}

	p.log.Infof("Pushed %s stories, %d failed",
		humanize.Comma(int64(report.Pushed)), report.Failed)
	return report, nil
}

func (p *Pipeline) record(runID, name, storyID, status, errMsg string) {
	if p.records == nil || runID == "" {
		return
	}
	err := p.records.Create(&repository.StoryRecord{
		RunID:        runID,
		StoryName:    name,
		StoryID:      storyID,
		Status:       status,
		ErrorMessage: errMsg,
	})
	if err != nil {
		p.log.Errorf("record story %q: %v", name, err)
	}
}

// Purge deletes every story in the given target projects. Used to clean
// a project before re-pushing.
func (p *Pipeline) Purge(ctx context.Context, projectIDs []models.ID) error {
	for _, projectID := range projectIDs {
		p.log.Infof("Clean all stories from project %s", p.log.Highlight(projectID.String()))

		stories, err := p.dst.GetStories(ctx, projectID)
		if err != nil {
			return err
		}
		if len(stories) == 0 {
			p.log.Infof("    No stories to remove!")
			continue
		}
		for _, story := range stories {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.log.Debugf("    Remove story %s - %s",
				p.log.Highlight(story.ID.String()), p.log.Highlight(story.Name))
			if err := p.dst.DeleteStory(ctx, projectID, story.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Migrate runs fetch, map and push back to back under one tracked run.
func (p *Pipeline) Migrate(ctx context.Context, workspaceName string, projectNames []string, dumpPath, storiesPath string) (string, error) {
	runID, err := p.newRun(workspaceName, projectNames)
	if err != nil {
		return "", err
	}
	return runID, p.run(ctx, runID, workspaceName, projectNames, dumpPath, storiesPath)
}

// StartMigration registers the run and executes it in the background,
// returning the run id for status lookups.
func (p *Pipeline) StartMigration(workspaceName string, projectNames []string, dumpPath, storiesPath string) (string, error) {
	runID, err := p.newRun(workspaceName, projectNames)
	if err != nil {
		return "", err
	}
	go func() {
		if err := p.run(context.Background(), runID, workspaceName, projectNames, dumpPath, storiesPath); err != nil {
			p.log.Errorf("run %s: %v", runID, err)
		}
	}()
	return runID, nil
}

func (p *Pipeline) newRun(workspaceName string, projectNames []string) (string, error) {
	runID := uuid.NewString()
	if p.runs != nil {
		err := p.runs.Create(&repository.Run{
			ID:        runID,
			Workspace: workspaceName,
			Projects:  projectNames,
			Stage:     "fetch",
			Status:    "running",
		})
		if err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (p *Pipeline) run(ctx context.Context, runID, workspaceName string, projectNames []string, dumpPath, storiesPath string) error {
	fetchReport, err := p.Fetch(ctx, runID, workspaceName, projectNames, dumpPath)
	if err != nil {
		p.complete(runID, "failed")
		return err
	}

	p.stage(runID, "map")
	if _, err := p.Map(ctx, dumpPath, storiesPath); err != nil {
		p.complete(runID, "failed")
		return err
	}

	p.stage(runID, "push")
	pushReport, err := p.Push(ctx, runID, storiesPath)
	if err != nil {
		p.complete(runID, "failed")
		return err
	}

	status := "completed"
	if len(fetchReport.Failed) > 0 || pushReport.Failed > 0 {
		status = "completed_with_errors"
	}
	p.complete(runID, status)
	return nil
}

func (p *Pipeline) stage(runID, stage string) {
	if p.runs == nil || runID == "" {
		return
	}
	if err := p.runs.UpdateStage(runID, stage); err != nil {
		p.log.Errorf("update run stage: %v", err)
	}
}

func (p *Pipeline) complete(runID, status string) {
	if p.runs == nil || runID == "" {
		return
	}
	if err := p.runs.Complete(runID, status); err != nil {
		p.log.Errorf("complete run: %v", err)
	}
}
