package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/azukiapp/tasks-service/internal/models"
)

// ErrMalformedConfig marks a mapping file that failed to parse or lacks
// required keys. Fatal at startup.
var ErrMalformedConfig = errors.New("malformed mapping config")

// UserMapping translates one source user.
type UserMapping struct {
	PivotalID models.ID `json:"pivotal_id"`
	Username  string    `json:"username"`
	MentionID models.ID `json:"mention_id"`
}

// ProjectMapping is a full placement: target project, story state and
// base labels.
type ProjectMapping struct {
	PivotalID models.ID `json:"pivotal_id"`
	State     string    `json:"state"`
	Labels    []string  `json:"labels"`
}

// SectionMapping overrides parts of a placement when a task sits in a
// matching section. State is a pointer so "no override" and "override
// to empty" stay distinguishable.
type SectionMapping struct {
	State  *string  `json:"state,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

type Defaults struct {
	Projects ProjectMapping `json:"projects"`
}

// Config is the declarative translation table for one migration run.
// Precedence for placement is defaults < project-specific < section
// overrides (state replaced, labels appended). Immutable once loaded.
type Config struct {
	Users    map[string]UserMapping    `json:"users"`
	Projects map[string]ProjectMapping `json:"projects"`
	Sections map[string]SectionMapping `json:"sections"`
	Defaults Defaults                  `json:"defaults"`
}

// LoadConfig reads a JSON-with-comments mapping file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig strips comments, parses and validates a mapping config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if len(cfg.Users) == 0 {
		return nil, fmt.Errorf("%w: missing users", ErrMalformedConfig)
	}
	if cfg.Defaults.Projects.PivotalID == "" {
		return nil, fmt.Errorf("%w: missing defaults.projects.pivotal_id", ErrMalformedConfig)
	}
	return &cfg, nil
}

// UserBySourceID looks a user up by its source-side id.
func (c *Config) UserBySourceID(id string) (UserMapping, bool) {
	user, ok := c.Users[id]
	return user, ok
}

// UserByPivotalID is the reverse lookup: it finds the entry whose
// pivotal_id equals id, returning the source id it is keyed under.
// Needed when validating target-side ids already present in the data.
func (c *Config) UserByPivotalID(id string) (string, UserMapping, bool) {
	for sourceID, user := range c.Users {
		if user.PivotalID.String() == id {
			return sourceID, user, true
		}
	}
	return "", UserMapping{}, false
}
