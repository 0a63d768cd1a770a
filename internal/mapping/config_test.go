package mapping_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azukiapp/tasks-service/internal/mapping"
)

const sampleConfig = `{
  // users are keyed by their source-side id
  "users": {
    "1111": { "pivotal_id": 6598261, "username": "gullit", "mention_id": 31415 },
    "2222": { "pivotal_id": "3333333", "username": "saito", "mention_id": "27182" }
  },
  /* project placements */
  "projects": {
    "500": { "pivotal_id": "6451272", "state": "unstarted", "labels": ["blog"] }
  },
  "sections": {
    "Doing:": { "state": "started" },
    "Done:": { "state": "finished", "labels": ["done"] }
  },
  "defaults": {
    "projects": { "pivotal_id": "9999999", "state": "unscheduled", "labels": ["imported"] }
  }
}`

func TestParseConfig(t *testing.T) {
	t.Parallel()

	t.Run("strips comments before parsing", func(t *testing.T) {
		t.Parallel()

		cfg, err := mapping.ParseConfig([]byte(sampleConfig))
		require.NoError(t, err)

		assert.Len(t, cfg.Users, 2)
		assert.Equal(t, "6598261", cfg.Users["1111"].PivotalID.String())
		assert.Equal(t, "unscheduled", cfg.Defaults.Projects.State)
		require.Contains(t, cfg.Sections, "Done:")
		assert.Equal(t, "finished", *cfg.Sections["Done:"].State)
	})

	t.Run("keeps comment markers inside strings", func(t *testing.T) {
		t.Parallel()

		cfg, err := mapping.ParseConfig([]byte(`{
  "users": { "1": { "pivotal_id": "2", "username": "https://example.com/u" } }, // trailing
  "defaults": { "projects": { "pivotal_id": "9", "state": "unstarted" } }
}`))
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/u", cfg.Users["1"].Username)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		t.Parallel()

		_, err := mapping.ParseConfig([]byte(`{ "users": `))
		assert.ErrorIs(t, err, mapping.ErrMalformedConfig)
	})

	t.Run("rejects missing users", func(t *testing.T) {
		t.Parallel()

		_, err := mapping.ParseConfig([]byte(`{"defaults": {"projects": {"pivotal_id": "1"}}}`))
		assert.ErrorIs(t, err, mapping.ErrMalformedConfig)
	})

	t.Run("rejects missing default placement", func(t *testing.T) {
		t.Parallel()

		_, err := mapping.ParseConfig([]byte(`{"users": {"1": {"pivotal_id": "2"}}}`))
		assert.ErrorIs(t, err, mapping.ErrMalformedConfig)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "map.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := mapping.LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Projects, 1)

	_, err = mapping.LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestUserLookups(t *testing.T) {
	t.Parallel()

	cfg, err := mapping.ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	user, ok := cfg.UserBySourceID("2222")
	require.True(t, ok)
	assert.Equal(t, "saito", user.Username)

	sourceID, user, ok := cfg.UserByPivotalID("6598261")
	require.True(t, ok)
	assert.Equal(t, "1111", sourceID)
	assert.Equal(t, "gullit", user.Username)

	_, _, ok = cfg.UserByPivotalID("0")
	assert.False(t, ok)
}
