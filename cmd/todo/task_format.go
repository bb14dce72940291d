package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NHHoangTuan/todo-api/internal/ui"
	"github.com/NHHoangTuan/todo-api/task"
)

const taskDetailLineWidth = 80

// printTaskTable prints tasks in a table format.
func printTaskTable(w io.Writer, tasks []task.Task, highlight func(string) string, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	fmt.Fprint(w, formatTaskTable(tasks, highlight, now))
}

func formatTaskTable(tasks []task.Task, highlight func(string) string, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"ID", "PRI", "STATUS", "DUE", "AGE", "DEPS", "TITLE"}, len(tasks))
	for _, t := range tasks {
		builder.AddRow(
			highlight(t.ID),
			ui.Priority(string(t.Priority)),
			ui.Status(string(t.Status)),
			ui.FormatDue(t.DueDate, now),
			ui.FormatDurationShort(now.Sub(t.CreatedAt)),
			formatDependencyCount(len(t.Dependencies)),
			ui.TruncateTableCell(t.Title),
		)
	}
	return builder.String()
}

func formatDependencyCount(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func formatPagination(p task.Pagination) string {
	if p.TotalTasks == 0 {
		return ""
	}
	return fmt.Sprintf("Page %d of %d (%d tasks)", p.CurrentPage, p.TotalPages, p.TotalTasks)
}

// printTaskDetail prints detailed information about a task.
func printTaskDetail(w io.Writer, detail *task.TaskDetail, highlight func(string) string, now time.Time) {
	t := detail.Task
	fmt.Fprintf(w, "%s %s\n", ui.Label("ID:      "), highlight(t.ID))
	fmt.Fprintf(w, "%s %s\n", ui.Label("Title:   "), t.Title)
	fmt.Fprintf(w, "%s %s\n", ui.Label("Status:  "), ui.Status(string(t.Status)))
	fmt.Fprintf(w, "%s %s\n", ui.Label("Priority:"), ui.Priority(string(t.Priority)))
	if t.DueDate != nil {
		fmt.Fprintf(w, "%s %s (%s)\n", ui.Label("Due:     "), t.DueDate.Format(task.DueDateLayout), ui.FormatDue(t.DueDate, now))
	}
	fmt.Fprintf(w, "%s %s\n", ui.Label("Created: "), t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%s %s\n", ui.Label("Updated: "), t.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(detail.Dependencies) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.Label("Depends on:"))
		for _, dep := range detail.Dependencies {
			fmt.Fprintf(w, "  %s %s (%s)\n", statusIcon(dep.Status), dep.Title, highlight(dep.ID))
		}
	}

	if t.Description != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", ui.Label("Description:"), renderMarkdownOrDash(t.Description, taskDetailLineWidth))
	}
}

// depTreeNode is one task in a dependency tree. Task is nil when the
// stored dependency no longer exists.
type depTreeNode struct {
	ID       string
	Task     *task.Task
	Repeated bool
	Children []*depTreeNode
}

// buildDepTree walks the dependencies of id depth first. A task reached
// a second time is marked Repeated and not expanded again.
func buildDepTree(ctx context.Context, svc *task.Service, id string) (*depTreeNode, error) {
	return buildDepTreeNode(ctx, svc, id, map[string]bool{})
}

func buildDepTreeNode(ctx context.Context, svc *task.Service, id string, seen map[string]bool) (*depTreeNode, error) {
	node := &depTreeNode{ID: id}
	if seen[id] {
		node.Repeated = true
		return node, nil
	}
	seen[id] = true

	t, err := svc.Get(ctx, id)
	if task.KindOf(err) == task.KindNotFound {
		return node, nil
	}
	if err != nil {
		return nil, err
	}
	node.Task = t
	for _, depID := range t.Dependencies {
		child, err := buildDepTreeNode(ctx, svc, depID, seen)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// printDepTree prints a dependency tree with ASCII art.
func printDepTree(w io.Writer, root *depTreeNode, highlight func(string) string) {
	fmt.Fprintln(w, depTreeLine(root, highlight))
	printDepChildren(w, root.Children, "", highlight)
}

func printDepChildren(w io.Writer, children []*depTreeNode, prefix string, highlight func(string) string) {
	for i, child := range children {
		connector, indent := "├── ", "│   "
		if i == len(children)-1 {
			connector, indent = "└── ", "    "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, depTreeLine(child, highlight))
		printDepChildren(w, child.Children, prefix+indent, highlight)
	}
}

func depTreeLine(node *depTreeNode, highlight func(string) string) string {
	switch {
	case node.Repeated:
		return fmt.Sprintf("... (%s)", highlight(node.ID))
	case node.Task == nil:
		return fmt.Sprintf("[?] missing (%s)", node.ID)
	default:
		return fmt.Sprintf("%s %s (%s)", statusIcon(node.Task.Status), node.Task.Title, highlight(node.ID))
	}
}

// statusIcon returns an icon for the status.
func statusIcon(s task.Status) string {
	switch s {
	case task.StatusToDo:
		return "[ ]"
	case task.StatusInProgress:
		return "[~]"
	case task.StatusDone:
		return "[x]"
	default:
		return "[?]"
	}
}

// explainError appends the tasks named by a blocked or referenced error.
func explainError(err error) error {
	var taskErr *task.Error
	if !errors.As(err, &taskErr) {
		return err
	}
	var details strings.Builder
	for _, ref := range taskErr.Blockers {
		fmt.Fprintf(&details, "\n  blocked by %s %s (%s)", ref.ID, ref.Title, ref.Status)
	}
	for _, ref := range taskErr.Referencing {
		fmt.Fprintf(&details, "\n  required by %s %s", ref.ID, ref.Title)
	}
	if details.Len() == 0 {
		return err
	}
	return fmt.Errorf("%w%s", err, details.String())
}
