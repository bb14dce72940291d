package main

import (
	"fmt"
	"io"

	"github.com/NHHoangTuan/todo-api/internal/listflags"
	"github.com/NHHoangTuan/todo-api/internal/ui"
	"github.com/NHHoangTuan/todo-api/task"
	"github.com/spf13/cobra"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage task dependencies",
}

var depAddCmd = &cobra.Command{
	Use:   "add <task-id> <depends-on-id>...",
	Short: "Make a task depend on one or more tasks",
	Long: `Make a task depend on one or more tasks.

With a single dependency the command fails if the edge is rejected.
With several, each is tried in order and rejected edges are reported
without stopping the rest.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDepAdd,
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <task-id> <depends-on-id>",
	Short: "Remove a dependency between tasks",
	Args:  cobra.ExactArgs(2),
	RunE:  runDepRemove,
}

var depListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List the direct and transitive dependencies of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepList,
}

var depListJSON bool

var depTreeCmd = &cobra.Command{
	Use:   "tree <task-id>",
	Short: "Show dependency tree for a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepTree,
}

var depAddJSON bool

func init() {
	rootCmd.AddCommand(depCmd)
	depCmd.AddCommand(depAddCmd, depRemoveCmd, depListCmd, depTreeCmd)

	depAddCmd.Flags().BoolVar(&depAddJSON, "json", false, "Output the batch report as JSON")
	listflags.AddJSONFlag(depListCmd, &depListJSON)
}

// resolveDependencyArgs resolves the task argument and any dependency that
// matches a known prefix. Dependencies that match nothing are passed through
// so the engine reports them.
func resolveDependencyArgs(cmd *cobra.Command, svc *task.Service, args []string) (string, []string, error) {
	index, err := svc.IDIndex(cmd.Context())
	if err != nil {
		return "", nil, err
	}
	taskID, err := index.Resolve(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", args[0], err)
	}
	deps := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := index.Resolve(arg)
		switch {
		case err == nil:
			deps = append(deps, id)
		case task.KindOf(err) == task.KindNotFound:
			deps = append(deps, arg)
		default:
			return "", nil, fmt.Errorf("%s: %w", arg, err)
		}
	}
	return taskID, deps, nil
}

func runDepAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, release, err := openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	taskID, deps, err := resolveDependencyArgs(cmd, svc, args)
	if err != nil {
		return err
	}
	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}

	if len(deps) == 1 && !depAddJSON {
		updated, err := svc.AddDependency(ctx, taskID, deps[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added dependency: %s depends on %s\n", highlight(updated.ID), highlight(deps[0]))
		return nil
	}

	report, err := svc.AddMultipleDependencies(ctx, taskID, deps)
	if err != nil {
		return err
	}
	if depAddJSON {
		return encodeJSON(cmd.OutOrStdout(), report)
	}
	printBatchReport(cmd.OutOrStdout(), report, highlight)
	return nil
}

// printBatchReport lists the accepted and rejected edges of a batch add.
func printBatchReport(w io.Writer, report *task.BatchReport, highlight func(string) string) {
	for _, id := range report.Results.Successful {
		fmt.Fprintf(w, "Added dependency: %s depends on %s\n", highlight(report.Task.ID), highlight(id))
	}
	for _, failure := range report.Results.Failed {
		line := fmt.Sprintf("Skipped %s: %s", failure.DependencyID, failure.Reason)
		fmt.Fprintln(w, ui.Failure(ui.Wrap(line, taskDetailLineWidth, 2)))
	}
}

func runDepRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, release, err := openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	taskID, deps, err := resolveDependencyArgs(cmd, svc, args)
	if err != nil {
		return err
	}
	updated, err := svc.RemoveDependency(ctx, taskID, deps[0])
	if err != nil {
		return err
	}
	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed dependency: %s no longer depends on %s\n", highlight(updated.ID), highlight(deps[0]))
	return nil
}

func runDepList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, release, err := openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	ids, err := resolveTaskIDs(ctx, svc, args)
	if err != nil {
		return err
	}
	report, err := svc.GetAllDependencies(ctx, ids[0])
	if err != nil {
		return err
	}
	if depListJSON {
		return encodeJSON(cmd.OutOrStdout(), report)
	}

	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s (%s)\n", ui.Label("Task:"), report.Task.Title, highlight(report.Task.ID))
	printRefSection(w, "Direct dependencies:", report.DirectDependencies, highlight)
	printRefSection(w, "All dependencies:", report.AllDependencies, highlight)
	return nil
}

func printRefSection(w io.Writer, label string, refs []task.Ref, highlight func(string) string) {
	fmt.Fprintf(w, "\n%s\n", ui.Label(label))
	if len(refs) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, ref := range refs {
		fmt.Fprintf(w, "  %s %s (%s)\n", statusIcon(ref.Status), ref.Title, highlight(ref.ID))
	}
}

func runDepTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, release, err := openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	ids, err := resolveTaskIDs(ctx, svc, args)
	if err != nil {
		return err
	}
	root, err := buildDepTree(ctx, svc, ids[0])
	if err != nil {
		return err
	}
	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	printDepTree(cmd.OutOrStdout(), root, highlight)
	return nil
}
