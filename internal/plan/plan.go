// Package plan imports a task graph described in HCL:
//
//	task "design" {
//	  title    = "Design the schema"
//	  priority = "high"
//	}
//
//	task "build" {
//	  title      = "Build the API"
//	  due_date   = "2024-06-01"
//	  depends_on = ["design"]
//	}
//
// Entries in depends_on name another block's key or, failing that, the ID
// of a task that already exists.
package plan

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/NHHoangTuan/todo-api/task"
)

// Plan is a validated set of task definitions in file order.
type Plan struct {
	Tasks []Entry
}

// Entry is one task block.
type Entry struct {
	Key         string
	Title       string
	Description string
	Priority    task.Priority
	DueDate     *time.Time
	DependsOn   []string
}

type hclPlanFile struct {
	Tasks []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	Key         string         `hcl:"key,label"`
	Title       string         `hcl:"title"`
	Description *string        `hcl:"description,optional"`
	Priority    *string        `hcl:"priority,optional"`
	DueDate     hcl.Expression `hcl:"due_date,optional"`
	DependsOn   []string       `hcl:"depends_on,optional"`
}

// ParseFile reads and parses the plan at path.
func ParseFile(path string) (*Plan, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(path, src)
}

// Parse parses src, naming it filename in diagnostics. Every entry is
// validated before anything is returned.
func Parse(filename string, src []byte) (*Plan, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse plan %s: %w", filename, diags)
	}

	var parsed hclPlanFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode plan %s: %w", filename, diags)
	}

	p := &Plan{Tasks: make([]Entry, 0, len(parsed.Tasks))}
	seen := make(map[string]bool, len(parsed.Tasks))
	for _, block := range parsed.Tasks {
		if seen[block.Key] {
			return nil, fmt.Errorf("%s: duplicate task %q", filename, block.Key)
		}
		seen[block.Key] = true

		entry, err := newEntry(block)
		if err != nil {
			return nil, fmt.Errorf("%s: task %q: %w", filename, block.Key, err)
		}
		p.Tasks = append(p.Tasks, entry)
	}
	return p, nil
}

func newEntry(block *hclTask) (Entry, error) {
	if err := task.ValidateTitle(block.Title); err != nil {
		return Entry{}, err
	}
	entry := Entry{
		Key:       block.Key,
		Title:     block.Title,
		Priority:  task.PriorityMedium,
		DependsOn: block.DependsOn,
	}
	if block.Description != nil {
		entry.Description = *block.Description
	}
	if block.Priority != nil {
		priority, err := task.ParsePriority(*block.Priority)
		if err != nil {
			return Entry{}, err
		}
		entry.Priority = priority
	}

	due, err := decodeDueDate(block.DueDate)
	if err != nil {
		return Entry{}, err
	}
	entry.DueDate = due
	return entry, nil
}

// decodeDueDate accepts a date string or a number of Unix seconds.
func decodeDueDate(expr hcl.Expression) (*time.Time, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("due_date must be a known value")
	}

	if val.Type() == cty.Number {
		var seconds int64
		if err := gocty.FromCtyValue(val, &seconds); err != nil {
			return nil, fmt.Errorf("due_date: %w", err)
		}
		due := time.Unix(seconds, 0).UTC()
		return &due, nil
	}

	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return nil, fmt.Errorf("due_date must be a string: %w", err)
	}
	return task.ParseDueDate(str.AsString())
}
