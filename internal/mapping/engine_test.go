package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azukiapp/tasks-service/internal/mapping"
	"github.com/azukiapp/tasks-service/internal/models"
)

func engineConfig(t *testing.T) *mapping.Config {
	t.Helper()
	cfg, err := mapping.ParseConfig([]byte(`{
  "users": {
    "1111": { "pivotal_id": "6598261", "username": "gullit", "mention_id": "31415" },
    "2222": { "pivotal_id": "3333333", "username": "saito", "mention_id": "27182" }
  },
  "projects": {
    "500": { "pivotal_id": "6451272", "state": "unstarted", "labels": ["blog"] }
  },
  "sections": {
    "Done:": { "state": "finished", "labels": ["done", "blog"] }
  },
  "defaults": {
    "projects": { "pivotal_id": "9999999", "state": "unscheduled", "labels": ["imported"] }
  }
}`))
	require.NoError(t, err)
	return cfg
}

func strPtr(s string) *string { return &s }

func TestMapTaskIsDeterministic(t *testing.T) {
	t.Parallel()

	engine := mapping.NewEngine(engineConfig(t))
	task := &models.Task{
		ID:       "1",
		Name:     "Blog Template",
		Notes:    "notes",
		DueOn:    strPtr("2015-04-10"),
		Assignee: &models.User{ID: "1111"},
		Projects: []models.Project{{ID: "500", Name: "Blog"}},
		Tags:     []models.Tag{{Name: "test"}, {Name: "blog"}},
	}

	first := engine.MapTask(task)
	second := engine.MapTask(task)
	assert.Equal(t, first, second)
}

func TestDeadlineAndStoryType(t *testing.T) {
	t.Parallel()

	engine := mapping.NewEngine(engineConfig(t))

	t.Run("set only when due_on is present", func(t *testing.T) {
		t.Parallel()

		story := engine.MapTask(&models.Task{ID: "1", Name: "a", DueOn: strPtr("2015-04-10")})
		assert.Equal(t, "2015-04-10T00:00:00.000Z", story.Deadline)
		assert.Equal(t, "release", story.StoryType)
	})

	t.Run("absent without due_on", func(t *testing.T) {
		t.Parallel()

		story := engine.MapTask(&models.Task{ID: "1", Name: "a"})
		assert.Empty(t, story.Deadline)
		assert.Empty(t, story.StoryType)
	})
}

func TestEstimateOnlyWhenFinished(t *testing.T) {
	t.Parallel()

	engine := mapping.NewEngine(engineConfig(t))

	unfinished := engine.MapTask(&models.Task{ID: "1", Name: "a"})
	assert.Zero(t, unfinished.Estimate)
	assert.Equal(t, "unscheduled", unfinished.CurrentState)

	finished := engine.MapTask(&models.Task{
		ID:   "2",
		Name: "b",
		Memberships: []models.Membership{
			{Section: &models.Section{Name: "Done:"}},
		},
	})
	assert.Equal(t, "finished", finished.CurrentState)
	assert.Equal(t, 1, finished.Estimate)
}

func TestProjectPlacementPrecedence(t *testing.T) {
	t.Parallel()

	engine := mapping.NewEngine(engineConfig(t))

	t.Run("defaults when the project is unmapped", func(t *testing.T) {
		t.Parallel()

		story := engine.MapTask(&models.Task{
			ID:       "1",
			Name:     "a",
			Projects: []models.Project{{ID: "777"}},
		})
		assert.Equal(t, models.ID("9999999"), story.ProjectID)
		assert.Equal(t, "unscheduled", story.CurrentState)
		assert.Equal(t, []string{"imported"}, story.Labels)
	})

	t.Run("mapped project replaces the defaults entirely", func(t *testing.T) {
		t.Parallel()

		story := engine.MapTask(&models.Task{
			ID:       "1",
			Name:     "a",
			Projects: []models.Project{{ID: "500"}},
		})
		assert.Equal(t, models.ID("6451272"), story.ProjectID)
		assert.Equal(t, "unstarted", story.CurrentState)
		assert.Equal(t, []string{"blog"}, story.Labels)
	})

	t.Run("section overrides state and appends labels", func(t *testing.T) {
		t.Parallel()

		story := engine.MapTask(&models.Task{
			ID:       "1",
			Name:     "a",
			Projects: []models.Project{{ID: "500"}},
			Memberships: []models.Membership{
				{Project: &models.Project{ID: "500"}},
				{Section: &models.Section{Name: "Done:"}},
			},
		})
		assert.Equal(t, models.ID("6451272"), story.ProjectID, "section does not move the story")
		assert.Equal(t, "finished", story.CurrentState)
		assert.Equal(t, []string{"blog", "done"}, story.Labels, "deduped against placement labels")
	})
}

func TestOwnerIDs(t *testing.T) {
	t.Parallel()

	engine := mapping.NewEngine(engineConfig(t))

	subtaskWith := func(id models.ID) *models.Task {
		return &models.Task{ID: "s" + id, Name: "sub", Assignee: &models.User{ID: id}}
	}

	t.Run("primary assignee first, translated, deduped, capped at three", func(t *testing.T) {
		t.Parallel()

		story := engine.MapTask(&models.Task{
			ID:       "1",
			Name:     "a",
			Assignee: &models.User{ID: "1111"},
			Subtasks: []*models.Task{
				subtaskWith("2222"),
				subtaskWith("1111"), // duplicate of the primary
				subtaskWith("40"),
				subtaskWith("41"),
				subtaskWith("42"),
			},
		})
		assert.Equal(t, []models.ID{"6598261", "3333333", "40"}, story.OwnerIDs)
	})

	t.Run("empty without assignees", func(t *testing.T) {
		t.Parallel()

		story := engine.MapTask(&models.Task{ID: "1", Name: "a"})
		assert.Empty(t, story.OwnerIDs)
	})
}

func TestLabelsNormalized(t *testing.T) {
	t.Parallel()

	engine := mapping.NewEngine(engineConfig(t))

	story := engine.MapTask(&models.Task{
		ID:       "1",
		Name:     "a",
		Projects: []models.Project{{ID: "500"}},
		Tags: []models.Tag{
			{Name: "test"},
			{Name: "blog"}, // duplicate of a placement label
			{Name: ""},     // null / malformed tag
			{Name: "2tag"},
		},
	})
	assert.Equal(t, []string{"blog", "test", "2tag"}, story.Labels)
	for _, label := range story.Labels {
		assert.NotEmpty(t, label)
	}
}

func TestCommentsPersonIDScrubbing(t *testing.T) {
	t.Parallel()

	engine := mapping.NewEngine(engineConfig(t))

	story := engine.MapTask(&models.Task{
		ID:   "1",
		Name: "a",
		Stories: []models.StoryEntry{
			{Text: "known source id", CreatedBy: &models.User{ID: "1111"}},
			{Text: "known target id", CreatedBy: &models.User{ID: "3333333"}},
			{Text: "unknown author", CreatedBy: &models.User{ID: "55555"}},
		},
	})

	require.Len(t, story.Comments, 3)
	assert.Equal(t, models.ID("1111"), story.Comments[0].PersonID)
	assert.Equal(t, models.ID("3333333"), story.Comments[1].PersonID, "reverse pivotal_id lookup keeps the id")
	assert.Empty(t, story.Comments[2].PersonID, "unmapped author id is stripped")
	assert.Equal(t, "unknown author", story.Comments[2].Text, "the comment itself is kept")
}

func TestMapTaskEndToEnd(t *testing.T) {
	t.Parallel()

	engine := mapping.NewEngine(engineConfig(t))

	task := &models.Task{
		ID:       "1",
		Name:     "Blog Template - Sub-tasks",
		Notes:    "Teste de Menção @gullit.",
		DueOn:    strPtr("2015-04-10"),
		Assignee: &models.User{ID: "1111"},
		Projects: []models.Project{{ID: "500", Name: "Blog"}},
		Tags:     []models.Tag{{Name: "test"}, {Name: "2tag"}},
		Memberships: []models.Membership{
			{Project: &models.Project{ID: "500"}, Section: &models.Section{Name: "Done:"}},
		},
		Subtasks: []*models.Task{
			{ID: "11", Name: "Draft post", Notes: "with notes", Assignee: &models.User{ID: "2222"}},
			{ID: "12", Name: "Review/final edits", Completed: true},
			{ID: "13", Name: "Publish"},
		},
		Attachments: []models.Attachment{
			{ID: "90", Name: "shot.jpg", DownloadURL: "https://files/shot.jpg"},
		},
		Stories: []models.StoryEntry{
			{Type: "system", Text: "added to Blog"},
			{Text: "first", CreatedBy: &models.User{ID: "1111"}},
			{Text: "second", CreatedBy: &models.User{ID: "2222"}},
			{Text: "third", CreatedBy: &models.User{ID: "55555"}},
			{Text: "no author"},
		},
	}

	story := engine.MapTask(task)

	assert.Equal(t, "Blog Template - Sub-tasks", story.Name)
	assert.Equal(t, "Teste de Menção @gullit.", story.Description)
	assert.Equal(t, models.ID("6451272"), story.ProjectID)
	assert.Equal(t, "finished", story.CurrentState)
	assert.Equal(t, 1, story.Estimate)
	assert.Equal(t, "2015-04-10T00:00:00.000Z", story.Deadline)
	assert.Equal(t, "release", story.StoryType)

	assert.Equal(t, []string{"blog", "done", "test", "2tag"}, story.Labels)
	assert.Equal(t, []models.ID{"6598261", "3333333"}, story.OwnerIDs)

	require.Equal(t, []models.StoryTask{
		{Description: "Draft post", Complete: false},
		{Description: "Review/final edits", Complete: true},
		{Description: "Publish", Complete: false},
	}, story.Tasks)

	// attachment comment first, then the non-system entries, then the
	// subtask-notes comment; the system entry is gone
	require.Len(t, story.Comments, 6)
	assert.Equal(t, []string{"https://files/shot.jpg"}, story.Comments[0].FileAttachments)
	assert.Equal(t, "first", story.Comments[1].Text)
	assert.Equal(t, models.ID("1111"), story.Comments[1].PersonID, "person ids are validated here, translated by the substitution stage")
	assert.Equal(t, "second", story.Comments[2].Text)
	assert.Empty(t, story.Comments[3].PersonID)
	assert.Equal(t, "no author", story.Comments[4].Text)
	assert.Equal(t, "[Draft post]:with notes", story.Comments[5].Text)
}
