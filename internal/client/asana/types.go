package asana

// envelope is the standard data wrapper every source API response uses.
type envelope[T any] struct {
	Data T `json:"data"`
}

type asanaDetailError struct {
	Message string `json:"message"`
	Help    string `json:"help"`
}

type asanaErrors struct {
	Errors []asanaDetailError `json:"errors"`
}

// taskOptFields is everything the mapper needs from a task detail.
const taskOptFields = "name,notes,completed,assignee,assignee.name," +
	"tags,tags.name,due_on,memberships.project,memberships.section," +
	"memberships.section.name,projects,projects.name"
