package task

import (
	"context"
	"fmt"
	"sort"
	"strings"

	internalstrings "github.com/NHHoangTuan/todo-api/internal/strings"
)

// Finder is the read side of the store the graph engine and the status gate
// depend on.
type Finder interface {
	// FindByID returns the task with id, or an error of KindNotFound.
	FindByID(ctx context.Context, id string) (*Task, error)

	// FindAllByID returns the tasks that exist among ids, in the order of ids.
	// Missing ids are skipped.
	FindAllByID(ctx context.Context, ids []string) ([]Task, error)
}

// Store is the persistence contract for tasks.
//
// Implementations must serialize writes per identifier: Save succeeds only if
// the stored version equals t.Version and fails with KindStoreConflict
// otherwise.
type Store interface {
	Finder

	// FindReferencing returns every task whose dependency list contains id.
	FindReferencing(ctx context.Context, id string) ([]Task, error)

	// Find returns the tasks matching q, sorted and paged.
	Find(ctx context.Context, q Query) ([]Task, error)

	// Count returns how many tasks match filter.
	Count(ctx context.Context, filter Filter) (int, error)

	// Create stores a new task. t.Version is set to 0.
	Create(ctx context.Context, t *Task) error

	// Save replaces an existing task and increments t.Version.
	Save(ctx context.Context, t *Task) error

	// DeleteByID removes the task with id.
	DeleteByID(ctx context.Context, id string) error
}

// Filter selects tasks. Zero fields match everything.
type Filter struct {
	Status   Status
	Priority Priority

	// Title matches tasks whose title contains it, case-insensitively.
	Title string
}

// Matches reports whether t passes the filter.
func (f Filter) Matches(t *Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Title != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Title)) {
		return false
	}
	return true
}

// SortKey orders tasks by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort fields accepted by ParseSort.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortTitle     = "title"
	SortStatus    = "status"
	SortPriority  = "priority"
	SortDueDate   = "dueDate"
)

// DefaultSort is newest first.
var DefaultSort = []SortKey{{Field: SortCreatedAt, Desc: true}}

var sortFields = []string{SortCreatedAt, SortUpdatedAt, SortTitle, SortStatus, SortPriority, SortDueDate}

// ParseSort parses "field,-field" into sort keys. A leading '-' sorts
// descending. An empty value yields DefaultSort.
func ParseSort(value string) ([]SortKey, error) {
	items := internalstrings.SplitList(value)
	if len(items) == 0 {
		return DefaultSort, nil
	}
	keys := make([]SortKey, 0, len(items))
	for _, item := range items {
		key := SortKey{Field: item}
		if strings.HasPrefix(item, "-") {
			key = SortKey{Field: item[1:], Desc: true}
		}
		if !validSortField(key.Field) {
			return nil, validationError("Invalid sort field", fmt.Errorf("%w: unknown sort field %q (valid: %s)", ErrInvalidTask, key.Field, strings.Join(sortFields, ", ")))
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func validSortField(field string) bool {
	for _, valid := range sortFields {
		if field == valid {
			return true
		}
	}
	return false
}

// Query is a filtered, sorted, paged read.
type Query struct {
	Filter Filter
	Sort   []SortKey

	// Skip drops that many matching tasks before collecting results.
	Skip int

	// Limit caps the result size; zero means no limit.
	Limit int
}

// priorityWeight orders priorities by importance so "-priority" puts high first.
func priorityWeight(p Priority) int {
	return 2 - p.Rank()
}

func compareTasks(a, b *Task, key SortKey) int {
	var c int
	switch key.Field {
	case SortCreatedAt:
		c = a.CreatedAt.Compare(b.CreatedAt)
	case SortUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	case SortTitle:
		c = strings.Compare(a.Title, b.Title)
	case SortStatus:
		c = strings.Compare(string(a.Status), string(b.Status))
	case SortPriority:
		c = priorityWeight(a.Priority) - priorityWeight(b.Priority)
	case SortDueDate:
		// Tasks without a due date sort after those with one.
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			c = 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		default:
			c = a.DueDate.Compare(*b.DueDate)
		}
	}
	if key.Desc {
		return -c
	}
	return c
}

// SortTasks sorts tasks in place by keys, breaking ties by ID.
func SortTasks(tasks []Task, keys []SortKey) {
	if len(keys) == 0 {
		keys = DefaultSort
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		for _, key := range keys {
			if c := compareTasks(&tasks[i], &tasks[j], key); c != 0 {
				return c < 0
			}
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// Select applies q to all, returning copies. Store implementations that
// keep every task in memory share it.
func Select(all []Task, q Query) []Task {
	matched := make([]Task, 0, len(all))
	for i := range all {
		if q.Filter.Matches(&all[i]) {
			matched = append(matched, all[i].Clone())
		}
	}
	SortTasks(matched, q.Sort)

	if q.Skip > 0 {
		if q.Skip >= len(matched) {
			return []Task{}
		}
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched
}
