package plan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/NHHoangTuan/todo-api/internal/logging"
	"github.com/NHHoangTuan/todo-api/task"
)

const samplePlan = `
task "design" {
  title    = "Design the schema"
  priority = "high"
}

task "build" {
  title       = "Build the API"
  description = "REST endpoints"
  due_date    = "2024-06-01"
  depends_on  = ["design"]
}

task "ship" {
  title      = "Ship it"
  due_date   = 1717200000
  depends_on = ["build", "design"]
}
`

func TestParse(t *testing.T) {
	p, err := Parse("plan.hcl", []byte(samplePlan))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	keys := []string{}
	for _, entry := range p.Tasks {
		keys = append(keys, entry.Key)
	}
	if diff := cmp.Diff([]string{"design", "build", "ship"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	design, build, ship := p.Tasks[0], p.Tasks[1], p.Tasks[2]
	if design.Priority != task.PriorityHigh || design.DueDate != nil {
		t.Fatalf("unexpected design entry %+v", design)
	}
	if build.Priority != task.PriorityMedium || build.Description != "REST endpoints" {
		t.Fatalf("unexpected build entry %+v", build)
	}
	if build.DueDate == nil || build.DueDate.Format(task.DueDateLayout) != "2024-06-01" {
		t.Fatalf("expected build due date, got %v", build.DueDate)
	}
	if ship.DueDate == nil || !ship.DueDate.Equal(time.Unix(1717200000, 0)) {
		t.Fatalf("expected unix due date, got %v", ship.DueDate)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "syntax", src: `task "a" {`, wantErr: "failed to parse plan"},
		{name: "missing title", src: `task "a" {}`, wantErr: "failed to decode plan"},
		{name: "unknown attribute", src: "task \"a\" {\n  title = \"A\"\n  owner = \"me\"\n}", wantErr: "failed to decode plan"},
		{name: "duplicate key", src: "task \"a\" { title = \"A\" }\ntask \"a\" { title = \"B\" }", wantErr: `duplicate task "a"`},
		{name: "blank title", src: `task "a" { title = "  " }`, wantErr: "title cannot be empty"},
		{name: "bad priority", src: "task \"a\" {\n  title = \"A\"\n  priority = \"urgent\"\n}", wantErr: "invalid priority"},
		{name: "bad due date", src: "task \"a\" {\n  title = \"A\"\n  due_date = \"soon\"\n}", wantErr: "invalid due date"},
		{name: "list due date", src: "task \"a\" {\n  title = \"A\"\n  due_date = [\"x\"]\n}", wantErr: "due_date must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("plan.hcl", []byte(tt.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestImportWiresDependencies(t *testing.T) {
	ctx := context.Background()
	svc := task.NewService(task.NewMemoryStore(), task.Options{})

	p, err := Parse("plan.hcl", []byte(samplePlan))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	result, err := Import(ctx, svc, p, logging.Discard())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Created) != 3 || result.Edges != 3 || len(result.Failed) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	ids := map[string]string{}
	for _, created := range result.Created {
		ids[created.Key] = created.Task.ID
	}
	report, err := svc.GetAllDependencies(ctx, ids["ship"])
	if err != nil {
		t.Fatalf("dependencies: %v", err)
	}
	all := []string{}
	for _, ref := range report.AllDependencies {
		all = append(all, ref.ID)
	}
	if diff := cmp.Diff([]string{ids["build"], ids["design"]}, all); diff != "" {
		t.Fatalf("transitive dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestImportReportsRejectedEdges(t *testing.T) {
	ctx := context.Background()
	svc := task.NewService(task.NewMemoryStore(), task.Options{})
	existing, err := svc.Create(ctx, task.CreateOptions{Title: "Existing"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	src := `
task "a" {
  title      = "A"
  depends_on = ["b", "` + existing.ID + `"]
}

task "b" {
  title      = "B"
  depends_on = ["a", "nope", "b"]
}
`
	p, err := Parse("cycle.hcl", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	result, err := Import(ctx, svc, p, logging.Discard())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Edges != 2 {
		t.Fatalf("expected a->b and a->existing, got %d edges", result.Edges)
	}

	got := []string{}
	for _, failure := range result.Failed {
		got = append(got, failure.Key+" "+failure.Reference+": "+failure.Reason)
	}
	want := []string{
		"b a: " + task.ReasonCircularDependency,
		"b nope: " + task.ReasonDependencyNotFound,
		"b b: " + task.ReasonCircularDependency,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("failures mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.hcl")
	if err := os.WriteFile(path, []byte(samplePlan), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if len(p.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(p.Tasks))
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.hcl")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
