package client

import (
	"context"

	"github.com/azukiapp/tasks-service/internal/models"
)

// TaskFilter narrows the task listing of a project. The zero value
// means "everything".
type TaskFilter struct {
	// CompletedSince keeps incomplete tasks plus tasks completed at or
	// after the given time (source API format, e.g. "2015-04-01T00:00:00Z"
	// or "now").
	CompletedSince string
}

type WorkspaceProvider interface {
	GetWorkspaces(ctx context.Context) ([]models.Workspace, error)
	GetProjects(ctx context.Context, workspaceID models.ID) ([]models.Project, error)
}

type TaskProvider interface {
	GetTasks(ctx context.Context, projectID models.ID, filter TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id models.ID) (*models.Task, error)
	GetSubtasks(ctx context.Context, id models.ID) ([]models.Task, error)
}

type ActivityProvider interface {
	GetStories(ctx context.Context, taskID models.ID) ([]models.StoryEntry, error)
	GetAttachments(ctx context.Context, taskID models.ID) ([]models.Attachment, error)
}

// SourceClient is everything the hierarchical fetcher needs from the
// source tracker.
type SourceClient interface {
	WorkspaceProvider
	TaskProvider
	ActivityProvider
}

// TargetClient is the narrow surface the push and purge stages need
// from the target tracker.
type TargetClient interface {
	CreateStory(ctx context.Context, projectID models.ID, story models.Story) (*models.StoryRef, error)
	GetStories(ctx context.Context, projectID models.ID) ([]models.StoryRef, error)
	DeleteStory(ctx context.Context, projectID, storyID models.ID) error
}
