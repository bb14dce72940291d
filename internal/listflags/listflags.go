// Package listflags defines the flags shared by commands that print task
// lists.
package listflags

import (
	"fmt"

	"github.com/NHHoangTuan/todo-api/task"
	"github.com/spf13/cobra"
)

// AddJSONFlag adds --json.
func AddJSONFlag(cmd *cobra.Command, target *bool) {
	cmd.Flags().BoolVar(target, "json", false, "Output as JSON")
}

// AddPageFlags adds --page and --limit with the service defaults.
func AddPageFlags(cmd *cobra.Command, page, limit *int) {
	cmd.Flags().IntVar(page, "page", task.DefaultPage, "Page number")
	cmd.Flags().IntVar(limit, "limit", task.DefaultLimit, fmt.Sprintf("Tasks per page (max %d)", task.MaxLimit))
}

// AddSortFlag adds --sort.
func AddSortFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "sort", "", "Sort fields, '-' prefix for descending (e.g. -priority,dueDate)")
}

// AddFilterFlags adds --status, --priority and --title.
func AddFilterFlags(cmd *cobra.Command, status, priority, title *string) {
	cmd.Flags().StringVar(status, "status", "", "Filter by status (to-do, in-progress, done)")
	cmd.Flags().StringVar(priority, "priority", "", "Filter by priority (low, medium, high)")
	cmd.Flags().StringVar(title, "title", "", "Filter by title substring")
}
