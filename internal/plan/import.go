package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NHHoangTuan/todo-api/task"
)

// Created pairs a plan key with the task created for it.
type Created struct {
	Key  string    `json:"key"`
	Task task.Task `json:"task"`
}

// EdgeFailure is a depends_on entry the dependency manager rejected.
type EdgeFailure struct {
	Key          string `json:"key"`
	TaskID       string `json:"taskId"`
	Reference    string `json:"reference"`
	DependencyID string `json:"dependencyId"`
	Reason       string `json:"reason"`
}

// Result reports what an import did.
type Result struct {
	Created []Created     `json:"created"`
	Edges   int           `json:"edges"`
	Failed  []EdgeFailure `json:"failed"`
}

// Import creates every task in p, then adds each task's dependencies as one
// batch. Rejected edges are reported, not fatal: the tasks stay created.
func Import(ctx context.Context, svc *task.Service, p *Plan, logger *slog.Logger) (*Result, error) {
	result := &Result{
		Created: make([]Created, 0, len(p.Tasks)),
		Failed:  []EdgeFailure{},
	}

	ids := make(map[string]string, len(p.Tasks))
	for _, entry := range p.Tasks {
		created, err := svc.Create(ctx, task.CreateOptions{
			Title:       entry.Title,
			Description: entry.Description,
			Priority:    entry.Priority,
			DueDate:     entry.DueDate,
		})
		if err != nil {
			return result, fmt.Errorf("create task %q: %w", entry.Key, err)
		}
		ids[entry.Key] = created.ID
		result.Created = append(result.Created, Created{Key: entry.Key, Task: *created})
		logger.Debug("created task", "key", entry.Key, "id", created.ID)
	}

	for _, entry := range p.Tasks {
		if len(entry.DependsOn) == 0 {
			continue
		}
		taskID := ids[entry.Key]

		depIDs := make([]string, len(entry.DependsOn))
		refByID := make(map[string]string, len(entry.DependsOn))
		for i, ref := range entry.DependsOn {
			depIDs[i] = ref
			if id, ok := ids[ref]; ok {
				depIDs[i] = id
			}
			refByID[depIDs[i]] = ref
		}

		report, err := svc.AddMultipleDependencies(ctx, taskID, depIDs)
		if err != nil {
			return result, fmt.Errorf("add dependencies of %q: %w", entry.Key, err)
		}
		result.Edges += len(report.Results.Successful)
		for _, failure := range report.Results.Failed {
			logger.Warn("dependency rejected",
				"key", entry.Key,
				"dependency", refByID[failure.DependencyID],
				"reason", failure.Reason)
			result.Failed = append(result.Failed, EdgeFailure{
				Key:          entry.Key,
				TaskID:       taskID,
				Reference:    refByID[failure.DependencyID],
				DependencyID: failure.DependencyID,
				Reason:       failure.Reason,
			})
		}
	}
	return result, nil
}
