package task

import (
	"context"
	"testing"
	"time"
)

// stepClock returns a clock that advances one minute per call.
func stepClock() func() time.Time {
	current := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func ptr[T any](v T) *T {
	return &v
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryStore(), Options{Now: stepClock()})
}

func mustCreate(t *testing.T, svc *Service, title string) *Task {
	t.Helper()
	created, err := svc.Create(context.Background(), CreateOptions{Title: title})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return created
}

func mustDepend(t *testing.T, svc *Service, taskID, dependencyID string) {
	t.Helper()
	if _, err := svc.AddDependency(context.Background(), taskID, dependencyID); err != nil {
		t.Fatalf("add dependency %s -> %s: %v", taskID, dependencyID, err)
	}
}

func mustSetStatus(t *testing.T, svc *Service, id string, status Status) {
	t.Helper()
	if _, err := svc.SetStatus(context.Background(), id, status); err != nil {
		t.Fatalf("set status %s to %s: %v", id, status, err)
	}
}

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s: %v", want, got, err)
	}
}

func refIDs(refs []Ref) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return ids
}

// graphFinder is a Finder over a literal adjacency map.
type graphFinder map[string][]string

func (g graphFinder) FindByID(_ context.Context, id string) (*Task, error) {
	deps, ok := g[id]
	if !ok {
		return nil, NotFound(id)
	}
	return &Task{ID: id, Title: "task " + id, Status: StatusToDo, Dependencies: deps}, nil
}

func (g graphFinder) FindAllByID(ctx context.Context, ids []string) ([]Task, error) {
	var result []Task
	for _, id := range ids {
		if t, err := g.FindByID(ctx, id); err == nil {
			result = append(result, *t)
		}
	}
	return result, nil
}
