package task

import (
	"context"
	"sync"
)

// MemoryStore keeps tasks in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]Task)}
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, notFoundError(id)
	}
	clone := t.Clone()
	return &clone, nil
}

func (s *MemoryStore) FindAllByID(ctx context.Context, ids []string) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tasks[id]; ok {
			result = append(result, t.Clone())
		}
	}
	return result, nil
}

func (s *MemoryStore) FindReferencing(ctx context.Context, id string) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Task
	for _, t := range s.tasks {
		if t.HasDependency(id) {
			result = append(result, t.Clone())
		}
	}
	SortTasks(result, []SortKey{{Field: SortCreatedAt}})
	return result, nil
}

func (s *MemoryStore) Find(ctx context.Context, q Query) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Select(s.snapshot(), q), nil
}

func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.tasks {
		if filter.Matches(&t) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Create(ctx context.Context, t *Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID]; exists {
		return conflictError(t.ID)
	}
	t.Version = 0
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, t *Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tasks[t.ID]
	if !ok {
		return notFoundError(t.ID)
	}
	if stored.Version != t.Version {
		return conflictError(t.ID)
	}
	t.Version++
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return notFoundError(id)
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		all = append(all, t)
	}
	return all
}

var _ Store = (*MemoryStore)(nil)
