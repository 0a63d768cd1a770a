package mapping

import (
	"slices"
	"time"

	"github.com/azukiapp/tasks-service/internal/models"
)

// Engine turns fetched tasks into normalized stories. MapTask is pure:
// no I/O, no clock, no mutation of the task or the config.
type Engine struct {
	cfg *Config
}

func NewEngine(cfg *Config) *Engine {
	return &Engine{cfg: cfg}
}

// MapTask builds the story for one task tree.
func (e *Engine) MapTask(task *models.Task) models.Story {
	placement := e.projectPlacement(task)
	storyTasks, subtaskComments := flattenSubtasks(task.Subtasks)

	story := models.Story{
		Name:         task.Name,
		Labels:       e.labels(placement, task),
		Description:  task.Notes,
		ProjectID:    placement.PivotalID,
		CurrentState: placement.State,
		Tasks:        storyTasks,
		OwnerIDs:     e.ownerIDs(task),
		Comments:     e.comments(task, subtaskComments),
	}

	if task.DueOn != nil && *task.DueOn != "" {
		story.Deadline = deadline(*task.DueOn)
		story.StoryType = "release"
	}
	if story.CurrentState == "finished" {
		story.Estimate = 1
	}
	return story
}

// projectPlacement resolves where the story lands. Defaults are the
// base; a mapped task project replaces them entirely; a mapped section
// then overrides the state and appends labels.
func (e *Engine) projectPlacement(task *models.Task) ProjectMapping {
	placement := e.cfg.Defaults.Projects
	if len(task.Projects) > 0 && task.Projects[0].ID != "" {
		if mapped, ok := e.cfg.Projects[task.Projects[0].ID.String()]; ok {
			placement = mapped
		}
	}
	placement.Labels = slices.Clone(placement.Labels)

	for _, membership := range task.Memberships {
		if membership.Section == nil || membership.Section.Name == "" {
			continue
		}
		section, ok := e.cfg.Sections[membership.Section.Name]
		if !ok {
			continue
		}
		if section.State != nil {
			placement.State = *section.State
		}
		placement.Labels = append(placement.Labels, section.Labels...)
		break
	}
	return placement
}

// ownerIDs collects the task assignee followed by every subtask
// assignee, translated through the user map, deduplicated in first-seen
// order and capped at three.
func (e *Engine) ownerIDs(task *models.Task) []models.ID {
	out := make([]models.ID, 0, 3)
	seen := make(map[models.ID]struct{})

	add := func(user *models.User) {
		if user == nil || user.ID == "" || len(out) >= 3 {
			return
		}
		id := user.ID
		if mapped, ok := e.cfg.UserBySourceID(id.String()); ok && mapped.PivotalID != "" {
			// an id the substitution pass already translated falls
			// through unchanged below
			id = mapped.PivotalID
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(task.Assignee)
	for _, subtask := range task.Subtasks {
		if subtask != nil {
			add(subtask.Assignee)
		}
	}
	return out
}

// labels merges placement labels with the task's tags, deduplicated,
// empty entries dropped.
func (e *Engine) labels(placement ProjectMapping, task *models.Task) []string {
	out := make([]string, 0, len(placement.Labels)+len(task.Tags))
	seen := make(map[string]struct{})

	push := func(label string) {
		if label == "" {
			return
		}
		if _, dup := seen[label]; dup {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}

	for _, label := range placement.Labels {
		push(label)
	}
	for _, tag := range task.Tags {
		push(tag.Name)
	}
	return out
}

// flattenSubtasks folds subtasks into checklist entries. A subtask with
// notes also yields a synthetic comment so the notes survive the
// flattening.
func flattenSubtasks(subtasks []*models.Task) ([]models.StoryTask, []models.StoryComment) {
	tasks := make([]models.StoryTask, 0, len(subtasks))
	var comments []models.StoryComment

	for _, subtask := range subtasks {
		if subtask == nil {
			continue
		}
		tasks = append(tasks, models.StoryTask{
			Description: subtask.Name,
			Complete:    subtask.Completed,
		})
		if subtask.Notes != "" {
			comments = append(comments, models.StoryComment{
				Text: "[" + subtask.Name + "]:" + subtask.Notes,
			})
		}
	}
	return tasks, comments
}

// comments builds the story's comment list: a synthetic attachment
// comment first when the task has attachments, then the task's activity
// entries (system entries dropped again, in case the dump predates the
// fetch-time filter), then the subtask-derived comments. Person ids
// unknown to the user map — neither a source key nor some entry's
// pivotal_id — are stripped; the comment itself stays.
func (e *Engine) comments(task *models.Task, subtaskComments []models.StoryComment) []models.StoryComment {
	out := make([]models.StoryComment, 0, len(task.Stories)+len(subtaskComments)+1)

	if len(task.Attachments) > 0 {
		urls := make([]string, 0, len(task.Attachments))
		for _, attachment := range task.Attachments {
			if attachment.DownloadURL != "" {
				urls = append(urls, attachment.DownloadURL)
			}
		}
		out = append(out, models.StoryComment{FileAttachments: urls})
	}

	for _, entry := range task.Stories {
		if entry.IsSystem() {
			continue
		}
		comment := models.StoryComment{Text: entry.Text}
		if entry.CreatedBy != nil {
			comment.PersonID = entry.CreatedBy.ID
		}
		out = append(out, comment)
	}

	out = append(out, subtaskComments...)

	for i := range out {
		id := out[i].PersonID.String()
		if id == "" {
			continue
		}
		if _, ok := e.cfg.UserBySourceID(id); ok {
			continue
		}
		if _, _, ok := e.cfg.UserByPivotalID(id); ok {
			continue
		}
		out[i].PersonID = ""
	}
	return out
}

// deadline expands a date-only due_on into the target's timestamp
// format. Inputs that already carry a time component pass through
// re-formatted; unparseable values pass through untouched.
func deadline(dueOn string) string {
	const outFormat = "2006-01-02T15:04:05.000Z"
	if t, err := time.Parse("2006-01-02", dueOn); err == nil {
		return t.UTC().Format(outFormat)
	}
	if t, err := time.Parse(time.RFC3339, dueOn); err == nil {
		return t.UTC().Format(outFormat)
	}
	return dueOn
}
