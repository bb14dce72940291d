package task

import (
	"fmt"
	"time"

	"github.com/NHHoangTuan/todo-api/internal/ids"
)

// GenerateID creates a unique 8-character ID from a title and timestamp.
func GenerateID(title string, timestamp time.Time) string {
	return ids.GenerateWithTimestamp(title, timestamp, ids.DefaultLength)
}

// IDIndex indexes task IDs for prefix matching and display.
type IDIndex struct {
	ids []string
}

// NewIDIndex builds an IDIndex from a slice of tasks.
func NewIDIndex(tasks []Task) IDIndex {
	taskIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}
	return IDIndex{ids: ids.Normalize(taskIDs)}
}

// Resolve returns the full task ID for a prefix.
func (index IDIndex) Resolve(prefix string) (string, error) {
	match, found, ambiguous := ids.MatchPrefix(index.ids, prefix)
	if !found {
		return "", notFoundError(prefix)
	}
	if ambiguous {
		return "", validationError("Ambiguous task ID", fmt.Errorf("%w: %s", ErrAmbiguousTaskIDPrefix, prefix))
	}
	return match, nil
}

// PrefixLengths returns the shortest unique prefix length for each ID.
func (index IDIndex) PrefixLengths() map[string]int {
	return ids.UniquePrefixLengths(index.ids)
}
