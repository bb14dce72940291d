package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/NHHoangTuan/todo-api/internal/logging"
	"github.com/NHHoangTuan/todo-api/internal/pgstore"
	"github.com/NHHoangTuan/todo-api/task"
)

func setupTestStore(t *testing.T) *pgstore.Store {
	t.Helper()

	connStr := os.Getenv("TODO_API_TEST_DB_URL")
	if connStr == "" {
		t.Skip("Skipping: TODO_API_TEST_DB_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := pgstore.Open(ctx, connStr, logging.Discard())
	if err != nil {
		t.Skipf("Skipping: cannot connect to test database: %v", err)
	}
	t.Cleanup(store.Close)

	if err := pgstore.Truncate(ctx, store); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return store
}

func TestStoreDependencyFlow(t *testing.T) {
	store := setupTestStore(t)
	svc := task.NewService(store, task.Options{})
	ctx := context.Background()

	a, err := svc.Create(ctx, task.CreateOptions{Title: "A"})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	b, err := svc.Create(ctx, task.CreateOptions{Title: "B", Priority: task.PriorityHigh})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}

	if _, err := svc.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("add dependency: %v", err)
	}
	if _, err := svc.AddDependency(ctx, b.ID, a.ID); task.KindOf(err) != task.KindCycleDetected {
		t.Fatalf("expected cycle, got %v", err)
	}

	referencing, err := store.FindReferencing(ctx, b.ID)
	if err != nil {
		t.Fatalf("find referencing: %v", err)
	}
	if len(referencing) != 1 || referencing[0].ID != a.ID {
		t.Fatalf("expected [%s] referencing %s, got %+v", a.ID, b.ID, referencing)
	}

	if err := svc.Delete(ctx, b.ID); task.KindOf(err) != task.KindReferencedByOthers {
		t.Fatalf("expected referenced error, got %v", err)
	}

	result, err := svc.List(ctx, task.ListOptions{Sort: []task.SortKey{{Field: task.SortPriority, Desc: true}}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.TotalTasks != 2 || result.Tasks[0].ID != b.ID {
		t.Fatalf("expected high priority task first, got %+v", result)
	}
}

func TestStoreVersionConflict(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	created := &task.Task{
		ID:           "conflict",
		Title:        "C",
		Status:       task.StatusToDo,
		Priority:     task.PriorityMedium,
		Dependencies: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Create(ctx, created); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, created); task.KindOf(err) != task.KindStoreConflict {
		t.Fatalf("expected conflict on duplicate id, got %v", err)
	}

	first, _ := store.FindByID(ctx, "conflict")
	second, _ := store.FindByID(ctx, "conflict")
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, second); task.KindOf(err) != task.KindStoreConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := store.DeleteByID(ctx, "conflict"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.FindByID(ctx, "conflict"); task.KindOf(err) != task.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
