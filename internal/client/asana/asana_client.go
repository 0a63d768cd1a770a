package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/azukiapp/tasks-service/internal/client"
	"github.com/azukiapp/tasks-service/internal/models"
)

// AsanaClient talks to the source tracker's REST API. It implements
// client.SourceClient.
type AsanaClient struct {
	baseUrl    string
	token      string
	httpClient *http.Client
}

func NewAsanaClient(token string) *AsanaClient {
	return &AsanaClient{
		baseUrl:    "https://app.asana.com/api/1.0",
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL points the client at a different API root. Used by tests.
func (c *AsanaClient) SetBaseURL(base string) { c.baseUrl = base }

func (c *AsanaClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseUrl + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request (asana): %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s (asana): %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		rl := &client.RateLimitError{}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			rl.RetryAfter = time.Duration(secs) * time.Second
		}
		errorBody, _ := io.ReadAll(resp.Body)
		var asanaErr asanaErrors
		if err := json.Unmarshal(errorBody, &asanaErr); err == nil && len(asanaErr.Errors) > 0 {
			rl.Message = asanaErr.Errors[0].Message
		}
		return nil, rl
	}

	if resp.StatusCode != http.StatusOK {
		errorBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read error body (asana): %w", err)
		}

		var asanaErr asanaErrors
		if err := json.Unmarshal(errorBody, &asanaErr); err != nil {
			return nil, fmt.Errorf("error status (asana): %d", resp.StatusCode)
		}
		if len(asanaErr.Errors) > 0 {
			return nil, fmt.Errorf("Asana error: %s", asanaErr.Errors[0].Message)
		}
		return nil, fmt.Errorf("API error status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body (asana): %w", err)
	}
	return body, nil
}

func decode[T any](body []byte, what string) (T, error) {
	var resp envelope[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		var zero T
		return zero, fmt.Errorf("parse %s (asana): %w", what, err)
	}
	return resp.Data, nil
}

func (c *AsanaClient) GetWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	body, err := c.get(ctx, "/workspaces", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]models.Workspace](body, "workspaces")
}

func (c *AsanaClient) GetProjects(ctx context.Context, workspaceID models.ID) ([]models.Project, error) {
	q := url.Values{"workspace": {workspaceID.String()}}
	body, err := c.get(ctx, "/projects", q)
	if err != nil {
		return nil, err
	}
	return decode[[]models.Project](body, "projects")
}

func (c *AsanaClient) GetTasks(ctx context.Context, projectID models.ID, filter client.TaskFilter) ([]models.Task, error) {
	q := url.Values{"project": {projectID.String()}}
	if filter.CompletedSince != "" {
		q.Set("completed_since", filter.CompletedSince)
	}
	body, err := c.get(ctx, "/tasks", q)
	if err != nil {
		return nil, err
	}
	return decode[[]models.Task](body, "tasks")
}

func (c *AsanaClient) GetTask(ctx context.Context, id models.ID) (*models.Task, error) {
	q := url.Values{"opt_fields": {taskOptFields}}
	body, err := c.get(ctx, "/tasks/"+id.String(), q)
	if err != nil {
		return nil, err
	}
	task, err := decode[models.Task](body, "task")
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *AsanaClient) GetSubtasks(ctx context.Context, id models.ID) ([]models.Task, error) {
	body, err := c.get(ctx, "/tasks/"+id.String()+"/subtasks", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]models.Task](body, "subtasks")
}

func (c *AsanaClient) GetStories(ctx context.Context, taskID models.ID) ([]models.StoryEntry, error) {
	body, err := c.get(ctx, "/tasks/"+taskID.String()+"/stories", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]models.StoryEntry](body, "stories")
}

// GetAttachments lists a task's attachments and fetches each one by id,
// since the listing does not include download URLs.
func (c *AsanaClient) GetAttachments(ctx context.Context, taskID models.ID) ([]models.Attachment, error) {
	body, err := c.get(ctx, "/tasks/"+taskID.String()+"/attachments", nil)
	if err != nil {
		return nil, err
	}
	refs, err := decode[[]models.Attachment](body, "attachments")
	if err != nil {
		return nil, err
	}

	attachments := make([]models.Attachment, 0, len(refs))
	for _, ref := range refs {
		body, err := c.get(ctx, "/attachments/"+ref.ID.String(), nil)
		if err != nil {
			return nil, err
		}
		attachment, err := decode[models.Attachment](body, "attachment")
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, nil
}
