package models

// Story is the normalized record pushed to the target tracker. It is
// flat: the source task tree is folded into Tasks (a checklist) and
// Comments before this struct is built.
type Story struct {
	Name         string         `json:"name"`
	Labels       []string       `json:"labels"`
	Description  string         `json:"description"`
	ProjectID    ID             `json:"project_id"`
	CurrentState string         `json:"current_state"`
	Tasks        []StoryTask    `json:"tasks"`
	OwnerIDs     []ID           `json:"owner_ids"`
	Comments     []StoryComment `json:"comments"`
	Deadline     string         `json:"deadline,omitempty"`
	StoryType    string         `json:"story_type,omitempty"`
	Estimate     int            `json:"estimate,omitempty"`
}

type StoryTask struct {
	Description string `json:"description"`
	Complete    bool   `json:"complete"`
}

// StoryComment is either a text comment (optionally attributed via
// PersonID) or a synthetic attachment comment carrying download URLs.
type StoryComment struct {
	Text            string   `json:"text,omitempty"`
	PersonID        ID       `json:"person_id,omitempty"`
	FileAttachments []string `json:"file_attachments,omitempty"`
}

// StoryRef identifies a story that exists on the target side.
type StoryRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}
