package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NHHoangTuan/todo-api/task"
)

func registerDependencyTools(s *server.MCPServer, svc *task.Service) {
	addDependency := mcp.NewTool("add_dependency",
		mcp.WithDescription("Record that a task depends on another task. Fails if the edge exists or would create a cycle."),
		mcp.WithString("task_id",
			mcp.Description("The dependent task"),
			mcp.Required(),
		),
		mcp.WithString("dependency_id",
			mcp.Description("The task that must be done first"),
			mcp.Required(),
		),
	)

	removeDependency := mcp.NewTool("remove_dependency",
		mcp.WithDescription("Remove a dependency edge."),
		mcp.WithString("task_id",
			mcp.Description("The dependent task"),
			mcp.Required(),
		),
		mcp.WithString("dependency_id",
			mcp.Description("The dependency to remove"),
			mcp.Required(),
		),
	)

	getDependencies := mcp.NewTool("get_dependencies",
		mcp.WithDescription("Get a task's direct dependencies and every task it transitively depends on."),
		mcp.WithString("task_id",
			mcp.Description("The task ID"),
			mcp.Required(),
		),
	)

	addDependencies := mcp.NewTool("add_dependencies",
		mcp.WithDescription("Add several dependencies to one task. Each is accepted or rejected on its own; later items see earlier accepted ones."),
		mcp.WithString("task_id",
			mcp.Description("The dependent task"),
			mcp.Required(),
		),
		mcp.WithArray("dependency_ids",
			mcp.Description("Tasks to depend on, in order"),
			mcp.Required(),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	s.AddTool(addDependency, makeAddDependencyHandler(svc))
	s.AddTool(removeDependency, makeRemoveDependencyHandler(svc))
	s.AddTool(getDependencies, makeGetDependenciesHandler(svc))
	s.AddTool(addDependencies, makeAddDependenciesHandler(svc))
}

func edgeArgs(request mcp.CallToolRequest) (string, string, error) {
	taskID := request.GetString("task_id", "")
	if taskID == "" {
		return "", "", fmt.Errorf("task_id is required")
	}
	dependencyID := request.GetString("dependency_id", "")
	if dependencyID == "" {
		return "", "", fmt.Errorf("dependency_id is required")
	}
	return taskID, dependencyID, nil
}

func makeAddDependencyHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID, dependencyID, err := edgeArgs(request)
		if err != nil {
			return errorResult(err), nil
		}
		if _, err := svc.AddDependency(ctx, taskID, dependencyID); err != nil {
			return errorResult(err), nil
		}
		return textResult(fmt.Sprintf("Task %s now depends on %s", taskID, dependencyID)), nil
	}
}

func makeRemoveDependencyHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID, dependencyID, err := edgeArgs(request)
		if err != nil {
			return errorResult(err), nil
		}
		if _, err := svc.RemoveDependency(ctx, taskID, dependencyID); err != nil {
			return errorResult(err), nil
		}
		return textResult(fmt.Sprintf("Task %s no longer depends on %s", taskID, dependencyID)), nil
	}
}

func makeGetDependenciesHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID := request.GetString("task_id", "")
		if taskID == "" {
			return errorResult(fmt.Errorf("task_id is required")), nil
		}
		report, err := svc.GetAllDependencies(ctx, taskID)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(report), nil
	}
}

func makeAddDependenciesHandler(svc *task.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID := request.GetString("task_id", "")
		if taskID == "" {
			return errorResult(fmt.Errorf("task_id is required")), nil
		}
		dependencyIDs := request.GetStringSlice("dependency_ids", nil)
		if len(dependencyIDs) == 0 {
			return errorResult(fmt.Errorf("dependency_ids must list at least one task")), nil
		}

		report, err := svc.AddMultipleDependencies(ctx, taskID, dependencyIDs)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(report), nil
	}
}
