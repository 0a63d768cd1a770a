package pivotal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/azukiapp/tasks-service/internal/models"
)

// PivotalClient talks to the target tracker's REST API. It implements
// client.TargetClient.
type PivotalClient struct {
	baseUrl    string
	token      string
	httpClient *http.Client
}

func NewPivotalClient(token string) *PivotalClient {
	return &PivotalClient{
		baseUrl:    "https://www.pivotaltracker.com/services/v5",
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL points the client at a different API root. Used by tests.
func (c *PivotalClient) SetBaseURL(base string) { c.baseUrl = base }

func (c *PivotalClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request (pivotal): %w", err)
		}
		reqBody = bytes.NewBuffer(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request (pivotal): %w", err)
	}
	req.Header.Set("X-TrackerToken", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s (pivotal): %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body (pivotal): %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Kind == "error" {
			return nil, fmt.Errorf("Pivotal error: %s", apiErr.message())
		}
		return nil, fmt.Errorf("API error status: %d", resp.StatusCode)
	}

	// The API sometimes answers 200 with an error payload.
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Kind == "error" {
		return nil, fmt.Errorf("Pivotal error: %s", apiErr.message())
	}

	return body, nil
}

func (c *PivotalClient) CreateStory(ctx context.Context, projectID models.ID, story models.Story) (*models.StoryRef, error) {
	body, err := c.do(ctx, http.MethodPost, "/projects/"+projectID.String()+"/stories", story)
	if err != nil {
		return nil, err
	}

	var created storyResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse create story response (pivotal): %w", err)
	}
	return &models.StoryRef{ID: created.ID, Name: created.Name}, nil
}

func (c *PivotalClient) GetStories(ctx context.Context, projectID models.ID) ([]models.StoryRef, error) {
	body, err := c.do(ctx, http.MethodGet, "/projects/"+projectID.String()+"/stories", nil)
	if err != nil {
		return nil, err
	}

	var stories []storyResponse
	if err := json.Unmarshal(body, &stories); err != nil {
		return nil, fmt.Errorf("parse stories response (pivotal): %w", err)
	}

	refs := make([]models.StoryRef, 0, len(stories))
	for _, s := range stories {
		refs = append(refs, models.StoryRef{ID: s.ID, Name: s.Name})
	}
	return refs, nil
}

func (c *PivotalClient) DeleteStory(ctx context.Context, projectID, storyID models.ID) error {
	_, err := c.do(ctx, http.MethodDelete, "/projects/"+projectID.String()+"/stories/"+storyID.String(), nil)
	return err
}
