package api

import (
	"encoding/json"

	"github.com/NHHoangTuan/todo-api/task"
)

// envelope is the body of every successful JSON response.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type listEnvelope struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Pagination task.Pagination   `json:"pagination"`
	Data       []json.RawMessage `json:"data"`
}

type messageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type welcomeResponse struct {
	Message string `json:"message"`
}

// IncompleteDependency is a dependency that blocked a status change.
type IncompleteDependency struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Status task.Status `json:"status"`
}

// DependentTask is a task that blocked a delete by depending on it.
type DependentTask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type errorEnvelope struct {
	Success                bool                   `json:"success"`
	Error                  string                 `json:"error"`
	IncompleteDependencies []IncompleteDependency `json:"incompleteDependencies,omitempty"`
	DependentTasks         []DependentTask        `json:"dependentTasks,omitempty"`
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
}

// updateTaskRequest keeps dueDate raw so an explicit null can clear it.
type updateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	DueDate     json.RawMessage `json:"dueDate"`
}

type batchDependenciesRequest struct {
	DependencyIDs []string `json:"dependencyIds"`
}

func incompleteDependencies(refs []task.Ref) []IncompleteDependency {
	if len(refs) == 0 {
		return nil
	}
	items := make([]IncompleteDependency, 0, len(refs))
	for _, ref := range refs {
		items = append(items, IncompleteDependency{ID: ref.ID, Title: ref.Title, Status: ref.Status})
	}
	return items
}

func dependentTasks(refs []task.Ref) []DependentTask {
	if len(refs) == 0 {
		return nil
	}
	items := make([]DependentTask, 0, len(refs))
	for _, ref := range refs {
		items = append(items, DependentTask{ID: ref.ID, Title: ref.Title})
	}
	return items
}
