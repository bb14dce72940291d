package editor

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/NHHoangTuan/todo-api/task"
)

// TaskData is rendered into the editing template.
type TaskData struct {
	// IsUpdate is true when editing an existing task.
	IsUpdate    bool
	ID          string
	Title       string
	Priority    string
	Status      string
	DueDate     string
	Description string
}

// DefaultCreateData returns the template data for a new task.
func DefaultCreateData() TaskData {
	return TaskData{Priority: string(task.PriorityMedium)}
}

// DataFromTask returns the template data for editing t.
func DataFromTask(t *task.Task) TaskData {
	data := TaskData{
		IsUpdate:    true,
		ID:          t.ID,
		Title:       t.Title,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Description: t.Description,
	}
	if t.DueDate != nil {
		data.DueDate = formatDue(*t.DueDate)
	}
	return data
}

// formatDue prints midnight UTC as a bare date and anything else as RFC 3339.
func formatDue(due time.Time) string {
	due = due.UTC()
	if due.Equal(due.Truncate(24 * time.Hour)) {
		return due.Format(task.DueDateLayout)
	}
	return due.Format(time.RFC3339)
}

var taskTemplate = template.Must(template.New("task").Parse(`{{- if .IsUpdate }}# editing {{ .ID }}
{{ end -}}
title = {{ printf "%q" .Title }}
priority = {{ printf "%q" .Priority }} # low, medium, high
due-date = {{ printf "%q" .DueDate }} # YYYY-MM-DD, empty for none
{{- if .IsUpdate }}
status = {{ printf "%q" .Status }} # to-do, in-progress, done
{{- end }}
---
{{ .Description }}
`))

// RenderTaskTOML renders data for editing.
func RenderTaskTOML(data TaskData) (string, error) {
	var buf bytes.Buffer
	if err := taskTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

type frontmatter struct {
	Title    string  `toml:"title"`
	Priority string  `toml:"priority"`
	DueDate  string  `toml:"due-date"`
	Status   *string `toml:"status"`
}

// ParsedTask is the validated result of an editing session.
type ParsedTask struct {
	Title       string
	Priority    task.Priority
	DueDate     *time.Time
	Status      *task.Status
	Description string
}

// ParseTaskTOML parses and validates edited content.
func ParseTaskTOML(content string) (*ParsedTask, error) {
	head, body := splitFrontmatter(content)

	var fm frontmatter
	meta, err := toml.Decode(head, &fm)
	if err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown field %q", undecoded[0].String())
	}

	if err := task.ValidateTitle(fm.Title); err != nil {
		return nil, err
	}
	parsed := &ParsedTask{
		Title:       strings.TrimSpace(fm.Title),
		Description: strings.TrimLeft(body, "\n"),
	}

	if fm.Priority == "" {
		parsed.Priority = task.PriorityMedium
	} else if parsed.Priority, err = task.ParsePriority(fm.Priority); err != nil {
		return nil, err
	}
	if parsed.DueDate, err = task.ParseDueDate(fm.DueDate); err != nil {
		return nil, err
	}
	if fm.Status != nil {
		status, err := task.ParseStatus(*fm.Status)
		if err != nil {
			return nil, err
		}
		parsed.Status = &status
	}
	return parsed, nil
}

func splitFrontmatter(content string) (string, string) {
	content = strings.TrimLeft(content, "\n")
	if content == "" {
		return "", ""
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return content, ""
}

func createTaskTempFile() (*os.File, error) {
	return os.CreateTemp("", "todo-task-*.md")
}

// EditTask opens the editor for existing, or for a new task when existing
// is nil.
func EditTask(existing *task.Task) (*ParsedTask, error) {
	data := DefaultCreateData()
	if existing != nil {
		data = DataFromTask(existing)
	}
	return EditTaskWithData(data)
}

// EditTaskWithData opens the editor pre-filled with data.
func EditTaskWithData(data TaskData) (*ParsedTask, error) {
	content, err := RenderTaskTOML(data)
	if err != nil {
		return nil, err
	}

	tmpfile, err := createTaskTempFile()
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpfile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpfile.WriteString(content); err != nil {
		tmpfile.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := Edit(tmpPath); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}
	return ParseTaskTOML(string(edited))
}

// ToCreateOptions converts the parsed task to create options. A status, if
// present, is ignored: new tasks always start as to-do.
func (p *ParsedTask) ToCreateOptions() task.CreateOptions {
	return task.CreateOptions{
		Title:       p.Title,
		Description: p.Description,
		Priority:    p.Priority,
		DueDate:     p.DueDate,
	}
}

// ToUpdateOptions converts the parsed task to update options. Every field
// but status is set, so clearing due-date in the editor clears it on the
// task. Status is only set when it differs from current, keeping unrelated
// edits clear of the dependency gate.
func (p *ParsedTask) ToUpdateOptions(current task.Status) task.UpdateOptions {
	opts := task.UpdateOptions{
		Title:       &p.Title,
		Description: &p.Description,
		Priority:    &p.Priority,
	}
	if p.Status != nil && *p.Status != current {
		opts.Status = p.Status
	}
	if p.DueDate == nil {
		opts.ClearDueDate = true
	} else {
		opts.DueDate = p.DueDate
	}
	return opts
}
