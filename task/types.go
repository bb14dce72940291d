// Package task tracks work items and the directed dependency edges between
// them.
//
// The dependency graph is kept acyclic on every mutation, and a task may only
// move to an active status (in-progress or done) once each of its direct
// dependencies is done.
//
// The public API is split by concern:
//   - Store is the persistence contract (MemoryStore, FileStore, pgstore)
//   - WouldCreateCycle and CollectTransitiveDependencies traverse the graph
//   - Manager adds and removes dependency edges
//   - ValidateTransition gates status changes
//   - Service wraps all of the above for the request layers
package task

// Status represents the state of a task.
type Status string

const (
	// StatusToDo indicates the task has not been started.
	StatusToDo Status = "to-do"

	// StatusInProgress indicates the task is currently being worked on.
	StatusInProgress Status = "in-progress"

	// StatusDone indicates the task has been completed.
	StatusDone Status = "done"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{StatusToDo, StatusInProgress, StatusDone}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// IsActive returns true for the statuses that require every direct
// dependency to be done.
func (s Status) IsActive() bool {
	return s == StatusInProgress || s == StatusDone
}

// Priority represents the importance of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium" // default
	PriorityHigh   Priority = "high"
)

// ValidPriorities returns all valid priority values.
func ValidPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid returns true if the priority is a known valid value.
func (p Priority) IsValid() bool {
	for _, valid := range ValidPriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// Rank returns the sort rank for a priority (0 sorts first).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// MaxTitleLength is the maximum allowed length for a task title.
const MaxTitleLength = 500
