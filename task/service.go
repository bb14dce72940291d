package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	internalstrings "github.com/NHHoangTuan/todo-api/internal/strings"
)

const (
	msgReferencedByOthers = "Cannot delete task - it is a dependency for other tasks"

	// DefaultPage and DefaultLimit apply when List is called without paging.
	DefaultPage  = 1
	DefaultLimit = 10

	// MaxLimit caps the page size of List.
	MaxLimit = 100

	maxCreateAttempts = 5
)

// Service is the entry point used by the HTTP, MCP and CLI layers. It embeds
// the dependency Manager and adds task CRUD and listing.
type Service struct {
	*Manager
}

// NewService returns a Service backed by store.
func NewService(store Store, opts Options) *Service {
	return &Service{Manager: NewManager(store, opts)}
}

// CreateOptions configures a new task.
type CreateOptions struct {
	Title       string
	Description string
	Priority    Priority // defaults to medium
	DueDate     *time.Time
}

// Create stores a new to-do task with no dependencies.
func (s *Service) Create(ctx context.Context, opts CreateOptions) (*Task, error) {
	if err := ValidateTitle(opts.Title); err != nil {
		return nil, err
	}
	priority := opts.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	now := s.now()
	t := &Task{
		Title:        strings.TrimSpace(opts.Title),
		Description:  internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(opts.Description)),
		Status:       StatusToDo,
		Priority:     priority,
		DueDate:      opts.DueDate,
		Dependencies: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := ValidateTask(t); err != nil {
		return nil, err
	}

	// A collision means another task hashed from the same title and clock
	// reading; salt the input and try again.
	seed := opts.Title
	for attempt := 1; ; attempt++ {
		t.ID = GenerateID(seed, now)
		err := s.store.Create(ctx, t)
		if err == nil {
			break
		}
		if KindOf(err) != KindStoreConflict || attempt == maxCreateAttempts {
			return nil, err
		}
		seed = fmt.Sprintf("%s#%d", opts.Title, attempt)
	}
	s.mutated(t.ID)
	return t, nil
}

// Get returns the task with id.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	return s.store.FindByID(ctx, id)
}

// TaskDetail is a task with its dependencies resolved to refs.
type TaskDetail struct {
	Task
	Dependencies []Ref `json:"dependencies"`
}

// Show returns the task with id and its direct dependencies resolved.
func (s *Service) Show(ctx context.Context, id string) (*TaskDetail, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	deps, err := s.store.FindAllByID(ctx, t.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	return &TaskDetail{Task: *t, Dependencies: refs(deps)}, nil
}

// UpdateOptions lists the fields to change. Nil fields are left alone.
// Dependencies change only through the Manager.
type UpdateOptions struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
}

// Update applies opts to the task with id. Moving to in-progress or done
// passes through ValidateTransition.
func (s *Service) Update(ctx context.Context, id string, opts UpdateOptions) (*Task, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if opts.Title != nil {
		if err := ValidateTitle(*opts.Title); err != nil {
			return nil, err
		}
		t.Title = strings.TrimSpace(*opts.Title)
	}
	if opts.Description != nil {
		t.Description = internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(*opts.Description))
	}
	if opts.Priority != nil {
		if !opts.Priority.IsValid() {
			return nil, validationError("Invalid priority", fmt.Errorf("%w: %q", ErrInvalidPriority, *opts.Priority))
		}
		t.Priority = *opts.Priority
	}
	if opts.ClearDueDate {
		t.DueDate = nil
	} else if opts.DueDate != nil {
		due := *opts.DueDate
		t.DueDate = &due
	}
	if opts.Status != nil {
		if !opts.Status.IsValid() {
			return nil, validationError("Invalid status", fmt.Errorf("%w: %q", ErrInvalidStatus, *opts.Status))
		}
		if err := ValidateTransition(ctx, s.store, t, *opts.Status); err != nil {
			return nil, err
		}
		t.Status = *opts.Status
	}

	t.UpdatedAt = s.now()
	if err := s.store.Save(ctx, t); err != nil {
		return nil, err
	}
	s.mutated(t.ID)
	return t, nil
}

// SetStatus is Update with only a status change.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*Task, error) {
	return s.Update(ctx, id, UpdateOptions{Status: &status})
}

// Delete removes the task with id. It is refused while any other task
// depends on it; deletion never cascades.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return err
	}

	referencing, err := s.store.FindReferencing(ctx, id)
	if err != nil {
		return fmt.Errorf("find referencing tasks: %w", err)
	}
	if len(referencing) > 0 {
		return &Error{Kind: KindReferencedByOthers, Msg: msgReferencedByOthers, Referencing: refs(referencing)}
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.mutated(id)
	return nil
}

// ListOptions configures List.
type ListOptions struct {
	Filter Filter
	Sort   []SortKey // defaults to DefaultSort
	Page   int       // 1-based, defaults to DefaultPage
	Limit  int       // defaults to DefaultLimit, capped at MaxLimit
}

// Pagination describes the page returned by List.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
	TotalTasks  int `json:"totalTasks"`
	TotalPages  int `json:"totalPages"`
}

// ListResult is one page of tasks.
type ListResult struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// List returns one page of the tasks matching opts.Filter.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	page := opts.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := opts.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	tasks, err := s.store.Find(ctx, Query{
		Filter: opts.Filter,
		Sort:   opts.Sort,
		Skip:   (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	total, err := s.store.Count(ctx, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}

	return &ListResult{
		Tasks: tasks,
		Pagination: Pagination{
			CurrentPage: page,
			Limit:       limit,
			TotalTasks:  total,
			TotalPages:  (total + limit - 1) / limit,
		},
	}, nil
}

// Ready returns to-do tasks whose dependencies are all done, most important
// first, then oldest first. limit <= 0 returns all of them.
func (s *Service) Ready(ctx context.Context, limit int) ([]Task, error) {
	candidates, err := s.store.Find(ctx, Query{
		Filter: Filter{Status: StatusToDo},
		Sort:   []SortKey{{Field: SortPriority, Desc: true}, {Field: SortCreatedAt}},
	})
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}

	ready := make([]Task, 0, len(candidates))
	for i := range candidates {
		if err := ValidateTransition(ctx, s.store, &candidates[i], StatusInProgress); err != nil {
			if KindOf(err) == KindBlockedByDependencies {
				continue
			}
			return nil, err
		}
		ready = append(ready, candidates[i])
		if limit > 0 && len(ready) == limit {
			break
		}
	}
	return ready, nil
}

// ResolveID expands a unique ID prefix to a full task ID.
func (s *Service) ResolveID(ctx context.Context, prefix string) (string, error) {
	all, err := s.store.Find(ctx, Query{})
	if err != nil {
		return "", fmt.Errorf("find tasks: %w", err)
	}
	return NewIDIndex(all).Resolve(prefix)
}

// IDIndex returns an index of every stored task ID.
func (s *Service) IDIndex(ctx context.Context) (IDIndex, error) {
	all, err := s.store.Find(ctx, Query{})
	if err != nil {
		return IDIndex{}, fmt.Errorf("find tasks: %w", err)
	}
	return NewIDIndex(all), nil
}
