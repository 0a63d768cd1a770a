package pivotal

import "github.com/azukiapp/tasks-service/internal/models"

type storyResponse struct {
	ID   models.ID `json:"id"`
	Kind string    `json:"kind"`
	Name string    `json:"name"`
}

// errorResponse is what the target API returns with kind "error".
type errorResponse struct {
	Kind           string `json:"kind"`
	Code           string `json:"code"`
	Error          string `json:"error"`
	GeneralProblem string `json:"general_problem"`
}

func (e errorResponse) message() string {
	if e.GeneralProblem != "" {
		return e.Error + ": " + e.GeneralProblem
	}
	return e.Error
}
