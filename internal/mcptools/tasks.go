package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NHHoangTuan/todo-api/task"
)

func registerTaskTools(s *server.MCPServer, svc *task.Service) {
	createTask := mcp.NewTool("create_task",
		mcp.WithDescription("Create a to-do task. New tasks have no dependencies; add them with add_dependency or add_dependencies."),
		mcp.WithString("title",
			mcp.Description("Task title"),
			mcp.Required(),
		),
		mcp.WithString("description",
			mcp.Description("Longer description, markdown allowed"),
		),
		mcp.WithString("priority",
			mcp.Description("Task priority (default medium)"),
			mcp.Enum("low", "medium", "high"),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date as YYYY-MM-DD or an RFC 3339 timestamp"),
		),
	)

	getTask := mcp.NewTool("get_task",
		mcp.WithDescription("Get a task with its direct dependencies resolved."),
		mcp.WithString("task_id",
			mcp.Description("The task ID"),
			mcp.Required(),
		),
	)

	listTasks := mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks one page at a time, optionally filtered."),
		mcp.WithString("status",
			mcp.Description("Only tasks with this status"),
			mcp.Enum("to-do", "in-progress", "done"),
		),
		mcp.WithString("priority",
			mcp.Description("Only tasks with this priority"),
			mcp.Enum("low", "medium", "high"),
		),
		mcp.WithString("title",
			mcp.Description("Only tasks whose title contains this text (case-insensitive)"),
		),
		mcp.WithString("sort",
			mcp.Description("Comma-separated sort fields, '-' prefix for descending (default -createdAt)"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Page size (max 100)"),
		),
	)

	updateStatus := mcp.NewTool("update_task_status",
		mcp.WithDescription("Change a task's status. Moving to in-progress or done fails while any direct dependency is not done."),
		mcp.WithString("task_id",
			mcp.Description("The task ID"),
			mcp.Required(),
		),
		mcp.WithString("status",
			mcp.Description("New task status"),
			mcp.Required(),
			mcp.Enum("to-do", "in-progress", "done"),
		),
	)

	deleteTask := mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task. Fails while other tasks depend on it."),
		mcp.WithString("task_id",
			mcp.Description("The task ID"),
			mcp.Required(),
		),
	)

	listReady := mcp.NewTool("list_ready_tasks",
		mcp.WithDescription("List to-do tasks whose dependencies are all done, most important first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of tasks (default all)"),
		),
	)

	s.AddTool(createTask, makeCreateTaskHandler(svc))
	s.AddTool(getTask, makeGetTaskHandler(svc))
	s.AddTool(listTasks, makeListTasksHandler(svc))
	s.AddTool(updateStatus, makeUpdateStatusHandler(svc))
	s.AddTool(deleteTask, makeDeleteTaskHandler(svc))
	s.AddTool(listReady, makeListReadyHandler(svc))
}

func makeCreateTaskHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		opts := task.CreateOptions{
			Title:       request.GetString("title", ""),
			Description: request.GetString("description", ""),
		}
		if v := request.GetString("priority", ""); v != "" {
			priority, err := task.ParsePriority(v)
			if err != nil {
				return errorResult(err), nil
			}
			opts.Priority = priority
		}
		due, err := task.ParseDueDate(request.GetString("due_date", ""))
		if err != nil {
			return errorResult(err), nil
		}
		opts.DueDate = due

		created, err := svc.Create(ctx, opts)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(created), nil
	}
}

func makeGetTaskHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("task_id", "")
		if id == "" {
			return errorResult(fmt.Errorf("task_id is required")), nil
		}
		detail, err := svc.Show(ctx, id)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(detail), nil
	}
}

func makeListTasksHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		opts := task.ListOptions{
			Page:  int(request.GetFloat("page", 0)),
			Limit: int(request.GetFloat("limit", 0)),
		}
		if v := request.GetString("status", ""); v != "" {
			status, err := task.ParseStatus(v)
			if err != nil {
				return errorResult(err), nil
			}
			opts.Filter.Status = status
		}
		if v := request.GetString("priority", ""); v != "" {
			priority, err := task.ParsePriority(v)
			if err != nil {
				return errorResult(err), nil
			}
			opts.Filter.Priority = priority
		}
		opts.Filter.Title = request.GetString("title", "")

		sort, err := task.ParseSort(request.GetString("sort", ""))
		if err != nil {
			return errorResult(err), nil
		}
		opts.Sort = sort

		result, err := svc.List(ctx, opts)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(result), nil
	}
}

func makeUpdateStatusHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("task_id", "")
		if id == "" {
			return errorResult(fmt.Errorf("task_id is required")), nil
		}
		status, err := task.ParseStatus(request.GetString("status", ""))
		if err != nil {
			return errorResult(err), nil
		}

		updated, err := svc.SetStatus(ctx, id, status)
		if err != nil {
			return errorResult(err), nil
		}
		return textResult(fmt.Sprintf("Task %s updated to %s", updated.ID, updated.Status)), nil
	}
}

func makeDeleteTaskHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("task_id", "")
		if id == "" {
			return errorResult(fmt.Errorf("task_id is required")), nil
		}
		if err := svc.Delete(ctx, id); err != nil {
			return errorResult(err), nil
		}
		return textResult(fmt.Sprintf("Deleted task %s", id)), nil
	}
}

func makeListReadyHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ready, err := svc.Ready(ctx, int(request.GetFloat("limit", 0)))
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(ready), nil
	}
}
