package task

import "time"

// Task represents a single unit of work.
//
// JSON field names follow the existing HTTP contract (`_id`, camelCase, `__v`).
type Task struct {
	// ID is a unique identifier (8-char base32, derived from initial title + timestamp).
	ID string `json:"_id"`

	// Title is the short summary of the task (max 500 chars).
	Title string `json:"title"`

	// Description provides additional context about the task.
	Description string `json:"description,omitempty"`

	// Status is the current state of the task.
	Status Status `json:"status"`

	// Priority is the importance level.
	Priority Priority `json:"priority"`

	// DueDate is when the task should be finished (nil if unset).
	DueDate *time.Time `json:"dueDate,omitempty"`

	// Dependencies lists the IDs of the tasks that must be done first, in
	// the order they were added.
	Dependencies []string `json:"dependencies"`

	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the task was last modified.
	UpdatedAt time.Time `json:"updatedAt"`

	// Version is bumped by the store on every save and used to detect lost
	// updates.
	Version int `json:"__v"`
}

// Ref is the identity and status of a task as shown in reports and errors.
type Ref struct {
	ID     string `json:"_id"`
	Title  string `json:"title"`
	Status Status `json:"status"`
}

// Summary is the identity of a task without its status.
type Summary struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// Ref returns the task's identity and status.
func (t *Task) Ref() Ref {
	return Ref{ID: t.ID, Title: t.Title, Status: t.Status}
}

// Summary returns the task's identity.
func (t *Task) Summary() Summary {
	return Summary{ID: t.ID, Title: t.Title}
}

// HasDependency reports whether id is in the task's direct dependency list.
func (t *Task) HasDependency(id string) bool {
	for _, dep := range t.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the task so stores never share slices with
// callers.
func (t Task) Clone() Task {
	clone := t
	if t.Dependencies != nil {
		clone.Dependencies = append([]string(nil), t.Dependencies...)
	} else {
		clone.Dependencies = []string{}
	}
	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}
	return clone
}

func refs(tasks []Task) []Ref {
	result := make([]Ref, 0, len(tasks))
	for i := range tasks {
		result = append(result, tasks[i].Ref())
	}
	return result
}
