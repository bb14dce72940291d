package task

import (
	"fmt"
	"strings"
	"time"

	internalstrings "github.com/NHHoangTuan/todo-api/internal/strings"
	"github.com/NHHoangTuan/todo-api/internal/validation"
)

// ValidateTitle checks if the title is valid.
func ValidateTitle(title string) error {
	if internalstrings.NormalizeWhitespace(title) == "" {
		return validationError("Title is required", ErrEmptyTitle)
	}
	if len(title) > MaxTitleLength {
		return validationError("Title is too long", fmt.Errorf("%w: %d > %d", ErrTitleTooLong, len(title), MaxTitleLength))
	}
	return nil
}

// ParseStatus normalizes and validates a status string.
func ParseStatus(value string) (Status, error) {
	status := Status(internalstrings.NormalizeLowerTrimSpace(value))
	if !status.IsValid() {
		return "", validationError("Invalid status", validation.FormatInvalidValueError(ErrInvalidStatus, Status(value), ValidStatuses()))
	}
	return status, nil
}

// ParsePriority normalizes and validates a priority string.
func ParsePriority(value string) (Priority, error) {
	priority := Priority(internalstrings.NormalizeLowerTrimSpace(value))
	if !priority.IsValid() {
		return "", validationError("Invalid priority", validation.FormatInvalidValueError(ErrInvalidPriority, Priority(value), ValidPriorities()))
	}
	return priority, nil
}

// DueDateLayout is the date-only form accepted for due dates.
const DueDateLayout = "2006-01-02"

// ParseDueDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// An empty value returns nil. Calendar dates are midnight UTC.
func ParseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{DueDateLayout, time.RFC3339Nano} {
		if due, err := time.Parse(layout, value); err == nil {
			due = due.UTC()
			return &due, nil
		}
	}
	return nil, validationError("Invalid due date", fmt.Errorf("%w: %q (use %s or RFC 3339)", ErrInvalidDueDate, value, DueDateLayout))
}

// ValidateDependencies checks that deps holds neither id nor duplicates.
func ValidateDependencies(id string, deps []string) error {
	seen := make(map[string]bool, len(deps))
	for _, dep := range deps {
		if dep == "" {
			return validationError("Dependency id is required", ErrInvalidTask)
		}
		if dep == id {
			return newError(KindCycleDetected, "A task cannot depend on itself")
		}
		if seen[dep] {
			return newError(KindDuplicateEdge, "Dependency already exists")
		}
		seen[dep] = true
	}
	return nil
}

// ValidateTask checks if a task record is valid.
func ValidateTask(t *Task) error {
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}
	if !t.Status.IsValid() {
		return validationError("Invalid status", validation.FormatInvalidValueError(ErrInvalidStatus, t.Status, ValidStatuses()))
	}
	if !t.Priority.IsValid() {
		return validationError("Invalid priority", validation.FormatInvalidValueError(ErrInvalidPriority, t.Priority, ValidPriorities()))
	}
	return ValidateDependencies(t.ID, t.Dependencies)
}
