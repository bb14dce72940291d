package task

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"file": func() Store {
			store, err := OpenFileStore(t.TempDir())
			if err != nil {
				t.Fatalf("open file store: %v", err)
			}
			return store
		},
	}
}

func sampleTask(id, title string, created time.Time, deps ...string) *Task {
	if deps == nil {
		deps = []string{}
	}
	return &Task{
		ID:           id,
		Title:        title,
		Status:       StatusToDo,
		Priority:     PriorityMedium,
		Dependencies: deps,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestStoreContract(t *testing.T) {
	base := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open()

			a := sampleTask("aaaaaaaa", "A", base)
			b := sampleTask("bbbbbbbb", "B", base.Add(time.Hour))
			c := sampleTask("cccccccc", "C", base.Add(2*time.Hour), "aaaaaaaa", "bbbbbbbb")
			for _, task := range []*Task{a, b, c} {
				if err := store.Create(ctx, task); err != nil {
					t.Fatalf("create %s: %v", task.ID, err)
				}
			}
			requireKind(t, store.Create(ctx, sampleTask("aaaaaaaa", "dup", base)), KindStoreConflict)

			got, err := store.FindByID(ctx, "cccccccc")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if diff := cmp.Diff(c, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
			_, err = store.FindByID(ctx, "missing")
			requireKind(t, err, KindNotFound)

			all, err := store.FindAllByID(ctx, []string{"bbbbbbbb", "missing", "aaaaaaaa"})
			if err != nil {
				t.Fatalf("find all: %v", err)
			}
			if diff := cmp.Diff([]string{"bbbbbbbb", "aaaaaaaa"}, taskIDs(all)); diff != "" {
				t.Fatalf("find all mismatch (-want +got):\n%s", diff)
			}

			referencing, err := store.FindReferencing(ctx, "aaaaaaaa")
			if err != nil {
				t.Fatalf("find referencing: %v", err)
			}
			if diff := cmp.Diff([]string{"cccccccc"}, taskIDs(referencing)); diff != "" {
				t.Fatalf("referencing mismatch (-want +got):\n%s", diff)
			}

			page, err := store.Find(ctx, Query{Sort: DefaultSort, Skip: 1, Limit: 1})
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if diff := cmp.Diff([]string{"bbbbbbbb"}, taskIDs(page)); diff != "" {
				t.Fatalf("page mismatch (-want +got):\n%s", diff)
			}

			count, err := store.Count(ctx, Filter{Title: "b"})
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if count != 1 {
				t.Fatalf("expected 1 match, got %d", count)
			}

			got.Status = StatusDone
			if err := store.Save(ctx, got); err != nil {
				t.Fatalf("save: %v", err)
			}
			if got.Version != 1 {
				t.Fatalf("expected version 1, got %d", got.Version)
			}
			stale := *got
			stale.Version = 0
			requireKind(t, store.Save(ctx, &stale), KindStoreConflict)
			requireKind(t, store.Save(ctx, sampleTask("missing", "x", base)), KindNotFound)

			if err := store.DeleteByID(ctx, "cccccccc"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			requireKind(t, store.DeleteByID(ctx, "cccccccc"), KindNotFound)
			remaining, err := store.Count(ctx, Filter{})
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if remaining != 2 {
				t.Fatalf("expected 2 tasks after delete, got %d", remaining)
			}
		})
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open()
			created := sampleTask("aaaaaaaa", "A", time.Now(), "x")
			if err := store.Create(ctx, created); err != nil {
				t.Fatalf("create: %v", err)
			}
			created.Dependencies[0] = "mutated"

			got, _ := store.FindByID(ctx, "aaaaaaaa")
			got.Dependencies[0] = "changed"

			again, _ := store.FindByID(ctx, "aaaaaaaa")
			if again.Dependencies[0] != "x" {
				t.Fatalf("store shares slices with callers: %v", again.Dependencies)
			}
		})
	}
}

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	svc := NewService(first, Options{Now: stepClock()})
	a := mustCreate(t, svc, "A")
	b := mustCreate(t, svc, "B")
	mustDepend(t, svc, a.ID, b.ID)

	second, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("find after reopen: %v", err)
	}
	if diff := cmp.Diff([]string{b.ID}, got.Dependencies); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(dir, TasksFile))
	if err != nil {
		t.Fatalf("read tasks file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], `"_id":"`+a.ID+`"`) || !strings.Contains(lines[0], `"__v":1`) {
		t.Fatalf("unexpected encoding: %s", lines[0])
	}
}

func TestFileStoreRejectsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, TasksFile), []byte("{not json}\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = store.FindByID(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "parse line 1") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestConcurrentAddsSerializePerTask(t *testing.T) {
	store, err := OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	svc := NewService(store, Options{})
	ctx := context.Background()
	root := mustCreate(t, svc, "root")

	const n = 8
	depIDs := make([]string, n)
	for i := range depIDs {
		depIDs[i] = mustCreate(t, svc, "dep "+string(rune('a'+i))).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range depIDs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddDependency(ctx, root.ID, depIDs[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case KindOf(err) == KindStoreConflict:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stored, _ := svc.Get(ctx, root.ID)
	if len(stored.Dependencies) != succeeded {
		t.Fatalf("lost update: %d successful adds but %d stored dependencies", succeeded, len(stored.Dependencies))
	}
}

func taskIDs(tasks []Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}
