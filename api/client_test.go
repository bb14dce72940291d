package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NHHoangTuan/todo-api/task"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	server := newTestServer(t)
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	return NewClient(httpServer.URL)
}

func TestNewClientAddsScheme(t *testing.T) {
	if got := NewClient("localhost:3000/").baseURL; got != "http://localhost:3000" {
		t.Fatalf("unexpected base URL %q", got)
	}
	if got := NewClient("https://example.com").baseURL; got != "https://example.com" {
		t.Fatalf("unexpected base URL %q", got)
	}
}

func TestClientRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	a, err := client.CreateTask(ctx, CreateTaskInput{Title: "A", Priority: "high", DueDate: &due})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	b, err := client.CreateTask(ctx, CreateTaskInput{Title: "B"})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	if a.DueDate == nil || !a.DueDate.Equal(due) {
		t.Fatalf("expected due date %v, got %v", due, a.DueDate)
	}

	if _, err := client.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("add dependency: %v", err)
	}
	report, err := client.AddDependencies(ctx, b.ID, []string{a.ID})
	if err != nil {
		t.Fatalf("add dependencies: %v", err)
	}
	if len(report.Results.Failed) != 1 || report.Results.Failed[0].Reason != task.ReasonCircularDependency {
		t.Fatalf("expected circular failure, got %+v", report.Results)
	}

	deps, err := client.GetDependencies(ctx, a.ID)
	if err != nil {
		t.Fatalf("get dependencies: %v", err)
	}
	if len(deps.AllDependencies) != 1 || deps.AllDependencies[0].ID != b.ID {
		t.Fatalf("unexpected dependencies %+v", deps)
	}

	detail, err := client.GetTask(ctx, a.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if len(detail.Dependencies) != 1 || detail.Dependencies[0].Title != "B" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	status := "done"
	_, err = client.UpdateTask(ctx, a.ID, UpdateTaskInput{Status: &status})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected gate error, got %v", err)
	}
	if len(apiErr.IncompleteDependencies) != 1 || apiErr.IncompleteDependencies[0].ID != b.ID {
		t.Fatalf("expected blocker B, got %+v", apiErr.IncompleteDependencies)
	}

	err = client.DeleteTask(ctx, b.ID)
	if !errors.As(err, &apiErr) || len(apiErr.DependentTasks) != 1 {
		t.Fatalf("expected referenced error, got %v", err)
	}

	ready, err := client.ReadyTasks(ctx, 0)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	if len(ready) != 1 || ready[0].ID != b.ID {
		t.Fatalf("expected B ready, got %+v", ready)
	}

	page, err := client.ListTasks(ctx, ListQuery{Priority: "high"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Count != 1 || page.Tasks[0].ID != a.ID || page.Pagination.TotalTasks != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	if _, err := client.RemoveDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("remove dependency: %v", err)
	}
	if err := client.DeleteTask(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = client.GetTask(ctx, b.ID)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Task not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}
