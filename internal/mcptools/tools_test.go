package mcptools_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NHHoangTuan/todo-api/internal/mcptools"
	"github.com/NHHoangTuan/todo-api/task"
)

func setupServer(t *testing.T) (*server.MCPServer, *task.Service) {
	t.Helper()
	svc := task.NewService(task.NewMemoryStore(), task.Options{})
	return mcptools.NewServer(svc, "test"), svc
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	tool := s.GetTool(name)
	if tool == nil {
		t.Fatalf("tool %q not registered", name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("tool %q returned error: %v", name, err)
	}
	return result
}

func getTextContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func createTask(t *testing.T, s *server.MCPServer, title string) task.Task {
	t.Helper()
	result := callTool(t, s, "create_task", map[string]any{"title": title})
	if result.IsError {
		t.Fatalf("create_task failed: %s", getTextContent(t, result))
	}
	var created task.Task
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &created); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return created
}

func TestAllToolsRegistered(t *testing.T) {
	s, _ := setupServer(t)

	expected := []string{
		"create_task", "get_task", "list_tasks", "update_task_status", "delete_task", "list_ready_tasks",
		"add_dependency", "remove_dependency", "get_dependencies", "add_dependencies",
	}

	registered := s.ListTools()
	for _, name := range expected {
		if _, ok := registered[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
	if len(registered) != len(expected) {
		t.Errorf("expected %d tools, got %d", len(expected), len(registered))
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	s, _ := setupServer(t)

	result := callTool(t, s, "create_task", map[string]any{
		"title":    "Write release notes",
		"priority": "high",
		"due_date": "2024-06-01",
	})
	if result.IsError {
		t.Fatalf("create_task failed: %s", getTextContent(t, result))
	}
	var created task.Task
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != task.StatusToDo || created.Priority != task.PriorityHigh {
		t.Fatalf("unexpected task %+v", created)
	}
	if created.DueDate == nil || created.DueDate.Format(task.DueDateLayout) != "2024-06-01" {
		t.Fatalf("expected due date, got %v", created.DueDate)
	}

	bad := callTool(t, s, "create_task", map[string]any{"title": "x", "priority": "urgent"})
	if !bad.IsError || !strings.Contains(getTextContent(t, bad), "Invalid priority") {
		t.Fatalf("expected priority error, got %+v", bad)
	}
}

func TestDependencyToolsEnforceGraph(t *testing.T) {
	s, _ := setupServer(t)
	a := createTask(t, s, "A")
	b := createTask(t, s, "B")

	result := callTool(t, s, "add_dependency", map[string]any{"task_id": a.ID, "dependency_id": b.ID})
	if result.IsError {
		t.Fatalf("add_dependency failed: %s", getTextContent(t, result))
	}

	result = callTool(t, s, "add_dependency", map[string]any{"task_id": b.ID, "dependency_id": a.ID})
	if !result.IsError {
		t.Fatal("expected cycle to be rejected")
	}
	if got := getTextContent(t, result); got != "Adding this dependency would create a circular reference" {
		t.Fatalf("unexpected message %q", got)
	}

	result = callTool(t, s, "get_dependencies", map[string]any{"task_id": a.ID})
	var report task.DependencyReport
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.AllDependencies) != 1 || report.AllDependencies[0].ID != b.ID {
		t.Fatalf("unexpected report %+v", report)
	}

	result = callTool(t, s, "remove_dependency", map[string]any{"task_id": a.ID, "dependency_id": b.ID})
	if result.IsError {
		t.Fatalf("remove_dependency failed: %s", getTextContent(t, result))
	}
	result = callTool(t, s, "remove_dependency", map[string]any{"task_id": a.ID, "dependency_id": b.ID})
	if !result.IsError || getTextContent(t, result) != "Dependency does not exist" {
		t.Fatalf("expected missing edge error, got %q", getTextContent(t, result))
	}
}

func TestAddDependenciesReportsPerItem(t *testing.T) {
	s, _ := setupServer(t)
	a := createTask(t, s, "A")
	b := createTask(t, s, "B")

	result := callTool(t, s, "add_dependencies", map[string]any{
		"task_id":        a.ID,
		"dependency_ids": []any{b.ID, "missing", b.ID},
	})
	if result.IsError {
		t.Fatalf("add_dependencies failed: %s", getTextContent(t, result))
	}
	var report task.BatchReport
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Results.Successful) != 1 || report.Results.Successful[0] != b.ID {
		t.Fatalf("unexpected successes %v", report.Results.Successful)
	}
	reasons := []string{}
	for _, failure := range report.Results.Failed {
		reasons = append(reasons, failure.Reason)
	}
	want := []string{task.ReasonDependencyNotFound, task.ReasonDuplicateDependency}
	if strings.Join(reasons, "|") != strings.Join(want, "|") {
		t.Fatalf("expected reasons %v, got %v", want, reasons)
	}

	empty := callTool(t, s, "add_dependencies", map[string]any{"task_id": a.ID, "dependency_ids": []any{}})
	if !empty.IsError {
		t.Fatal("expected empty batch to be rejected")
	}
}

func TestUpdateStatusListsBlockers(t *testing.T) {
	s, _ := setupServer(t)
	a := createTask(t, s, "A")
	b := createTask(t, s, "Blocker")
	callTool(t, s, "add_dependency", map[string]any{"task_id": a.ID, "dependency_id": b.ID})

	result := callTool(t, s, "update_task_status", map[string]any{"task_id": a.ID, "status": "done"})
	if !result.IsError {
		t.Fatal("expected gate to refuse")
	}
	text := getTextContent(t, result)
	if !strings.HasPrefix(text, "Cannot update task status - it has incomplete dependencies") {
		t.Fatalf("unexpected message %q", text)
	}
	if !strings.Contains(text, b.ID) || !strings.Contains(text, `"Blocker" (to-do)`) {
		t.Fatalf("expected blocker details in %q", text)
	}

	ready := callTool(t, s, "list_ready_tasks", map[string]any{})
	var tasks []task.Task
	if err := json.Unmarshal([]byte(getTextContent(t, ready)), &tasks); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Fatalf("expected only the blocker to be ready, got %+v", tasks)
	}

	result = callTool(t, s, "update_task_status", map[string]any{"task_id": b.ID, "status": "done"})
	if result.IsError {
		t.Fatalf("update_task_status failed: %s", getTextContent(t, result))
	}
	result = callTool(t, s, "update_task_status", map[string]any{"task_id": a.ID, "status": "in-progress"})
	if result.IsError {
		t.Fatalf("expected gate to pass once blocker is done: %s", getTextContent(t, result))
	}
}

func TestDeleteTaskListsDependents(t *testing.T) {
	s, _ := setupServer(t)
	a := createTask(t, s, "Dependent")
	b := createTask(t, s, "B")
	callTool(t, s, "add_dependency", map[string]any{"task_id": a.ID, "dependency_id": b.ID})

	result := callTool(t, s, "delete_task", map[string]any{"task_id": b.ID})
	if !result.IsError || !strings.Contains(getTextContent(t, result), `"Dependent"`) {
		t.Fatalf("expected dependent listed, got %q", getTextContent(t, result))
	}

	result = callTool(t, s, "delete_task", map[string]any{"task_id": a.ID})
	if result.IsError {
		t.Fatalf("delete_task failed: %s", getTextContent(t, result))
	}

	list := callTool(t, s, "list_tasks", map[string]any{"title": "b"})
	var page task.ListResult
	if err := json.Unmarshal([]byte(getTextContent(t, list)), &page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if page.Pagination.TotalTasks != 1 || page.Tasks[0].ID != b.ID {
		t.Fatalf("unexpected list %+v", page)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s, _ := setupServer(t)
	result := callTool(t, s, "get_task", map[string]any{"task_id": "missing"})
	if !result.IsError || getTextContent(t, result) != "Task not found" {
		t.Fatalf("expected not found, got %q", getTextContent(t, result))
	}
}
