package pivotal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azukiapp/tasks-service/internal/client/pivotal"
	"github.com/azukiapp/tasks-service/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *pivotal.PivotalClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := pivotal.NewPivotalClient("pt-token")
	c.SetBaseURL(server.URL)
	return c
}

func TestCreateStory(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/projects/6451272/stories", r.URL.Path)
		assert.Equal(t, "pt-token", r.Header.Get("X-TrackerToken"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Write post", payload["name"])
		assert.Equal(t, "accepted", payload["current_state"])

		w.Write([]byte(`{"id":9001,"name":"Write post"}`))
	}))

	story := models.Story{Name: "Write post", CurrentState: "accepted"}
	created, err := c.CreateStory(context.Background(), "6451272", story)
	require.NoError(t, err)
	assert.Equal(t, models.ID("9001"), created.ID)
	assert.Equal(t, "Write post", created.Name)
}

func TestCreateStoryErrorPayloadOn200(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind":"error","error":"Name is required","general_problem":"story was not created"}`))
	}))

	_, err := c.CreateStory(context.Background(), "6451272", models.Story{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name is required")
}

func TestCreateStoryHTTPError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"kind":"error","error":"Validation failed"}`))
	}))

	_, err := c.CreateStory(context.Background(), "6451272", models.Story{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validation failed")
}

func TestGetStories(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`[{"id":1,"name":"a"},{"id":2,"name":"b"}]`))
	}))

	stories, err := c.GetStories(context.Background(), "6451272")
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, models.ID("1"), stories[0].ID)
	assert.Equal(t, "b", stories[1].Name)
}

func TestDeleteStory(t *testing.T) {
	t.Parallel()

	var deleted string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted = r.URL.Path
		w.Write([]byte(`{}`))
	}))

	require.NoError(t, c.DeleteStory(context.Background(), "6451272", "9001"))
	assert.Equal(t, "/projects/6451272/stories/9001", deleted)
}
