package models

import (
	"encoding/json"
)

// ID is a record identifier as delivered by the trackers. The source API
// serves ids both as JSON numbers and as strings depending on endpoint
// age, so the lexical form is preserved and numeric ids are re-emitted
// as numbers on marshal.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if isCanonicalNumber(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// isCanonicalNumber reports whether s can be emitted raw as a JSON
// number: digits only, no sign, no leading zero. "0123" or "+5" would
// parse as integers but are not valid JSON tokens, so they stay strings.
func isCanonicalNumber(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (id ID) String() string { return string(id) }

type Workspace struct {
	ID       ID        `json:"id"`
	Name     string    `json:"name"`
	Projects []Project `json:"projects,omitempty"`
	Tasks    []*Task   `json:"tasks,omitempty"`
}

type Project struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

type Section struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

// Membership ties a task to a project and, optionally, to a section
// (board column) inside it.
type Membership struct {
	Project *Project `json:"project,omitempty"`
	Section *Section `json:"section,omitempty"`
}

// Tag accepts both the object form {"id":..,"name":..} and a bare
// string; anything else unmarshals to an empty tag and is dropped
// during label normalization.
type Tag struct {
	Name string
}

func (t *Tag) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		// null or an unexpected shape: not a usable tag
		t.Name = ""
		return nil
	}
	t.Name = obj.Name
	return nil
}

func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
	}{Name: t.Name})
}

// StoryEntry is a source-side activity entry on a task (the source API
// calls these "stories"; they are unrelated to the Story output type).
// Entries with Type "system" are audit noise and carry no user content.
type StoryEntry struct {
	ID        ID     `json:"id,omitempty"`
	Type      string `json:"type,omitempty"`
	Text      string `json:"text"`
	CreatedBy *User  `json:"created_by,omitempty"`
}

// IsSystem reports whether the entry is machine-generated audit noise.
func (s StoryEntry) IsSystem() bool { return s.Type == "system" }

type Attachment struct {
	ID          ID     `json:"id,omitempty"`
	Name        string `json:"name"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Task is a source task together with everything the detail fetch hangs
// off it. Subtasks are Tasks themselves, fetched without further
// attachment lookups. Err records the terminal fetch error when the
// retry budget for the task ran out.
type Task struct {
	ID          ID           `json:"id"`
	Name        string       `json:"name"`
	Notes       string       `json:"notes,omitempty"`
	Completed   bool         `json:"completed,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`
	DueOn       *string      `json:"due_on,omitempty"`
	Memberships []Membership `json:"memberships,omitempty"`
	Projects    []Project    `json:"projects,omitempty"`
	Subtasks    []*Task      `json:"subtasks,omitempty"`
	Stories     []StoryEntry `json:"stories,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Err         string       `json:"error,omitempty"`
}
