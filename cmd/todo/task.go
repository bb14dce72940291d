package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NHHoangTuan/todo-api/internal/editor"
	"github.com/NHHoangTuan/todo-api/internal/listflags"
	"github.com/NHHoangTuan/todo-api/internal/ui"
	"github.com/NHHoangTuan/todo-api/task"
	"github.com/spf13/cobra"
)

// create
var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new task",
	Long: `Create a new task.

By default, opens $EDITOR to edit a TOML representation of the task
when running interactively. Use --no-edit to skip the editor, or
--edit to force opening the editor even when not interactive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

var (
	createPriority    string
	createDescription string
	createDue         string
	createDependsOn   []string
	createEdit        bool
	createNoEdit      bool
)

// update
var updateCmd = &cobra.Command{
	Use:   "update <id>...",
	Short: "Update one or more tasks",
	Long: `Update one or more tasks.

By default, opens $EDITOR to edit a TOML representation of the task
when running interactively and no update flags are provided (one editor session per ID).
Use --no-edit to skip the editor, or --edit to force opening the editor even when not interactive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpdate,
}

var (
	updateTitle       string
	updateDescription string
	updateStatus      string
	updatePriority    string
	updateDue         string
	updateClearDue    bool
	updateEdit        bool
	updateNoEdit      bool
)

var startCmd = &cobra.Command{
	Use:   "start <id>...",
	Short: "Mark one or more tasks as in progress",
	Args:  cobra.MinimumNArgs(1),
	RunE:  statusRunner(task.StatusInProgress, "Started"),
}

var finishCmd = &cobra.Command{
	Use:   "finish <id>...",
	Short: "Mark one or more tasks as done",
	Args:  cobra.MinimumNArgs(1),
	RunE:  statusRunner(task.StatusDone, "Finished"),
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>...",
	Short: "Move one or more tasks back to to-do",
	Args:  cobra.MinimumNArgs(1),
	RunE:  statusRunner(task.StatusToDo, "Reopened"),
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more tasks",
	Long: `Delete one or more tasks.

A task that other tasks depend on cannot be deleted until those
dependencies are removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

var showCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show detailed information about tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

var showJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	listStatus   string
	listPriority string
	listTitle    string
	listSort     string
	listPage     int
	listLimit    int
	listJSON     bool
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List to-do tasks whose dependencies are all done",
	Args:  cobra.NoArgs,
	RunE:  runReady,
}

var (
	readyLimit int
	readyJSON  bool
)

func init() {
	rootCmd.AddCommand(createCmd, updateCmd, startCmd, finishCmd, reopenCmd, deleteCmd, showCmd, listCmd, readyCmd)
	addDescriptionFlagAliases(createCmd, updateCmd)

	createCmd.Flags().StringVarP(&createPriority, "priority", "p", string(task.PriorityMedium), "Priority (low, medium, high)")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Description (use '-' to read from stdin)")
	createCmd.Flags().StringVar(&createDue, "due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	createCmd.Flags().StringArrayVar(&createDependsOn, "depends-on", nil, "ID of a task the new task depends on (repeatable)")
	createCmd.Flags().BoolVarP(&createEdit, "edit", "e", false, "Open $EDITOR (default if interactive)")
	createCmd.Flags().BoolVar(&createNoEdit, "no-edit", false, "Do not open $EDITOR")

	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "New description (use '-' to read from stdin)")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "New status (to-do, in-progress, done)")
	updateCmd.Flags().StringVarP(&updatePriority, "priority", "p", "", "New priority (low, medium, high)")
	updateCmd.Flags().StringVar(&updateDue, "due", "", "New due date (YYYY-MM-DD or RFC 3339)")
	updateCmd.Flags().BoolVar(&updateClearDue, "clear-due", false, "Remove the due date")
	updateCmd.Flags().BoolVarP(&updateEdit, "edit", "e", false, "Open $EDITOR (default if interactive)")
	updateCmd.Flags().BoolVar(&updateNoEdit, "no-edit", false, "Do not open $EDITOR")
	updateCmd.MarkFlagsMutuallyExclusive("due", "clear-due")

	listflags.AddJSONFlag(showCmd, &showJSON)

	listflags.AddFilterFlags(listCmd, &listStatus, &listPriority, &listTitle)
	listflags.AddSortFlag(listCmd, &listSort)
	listflags.AddPageFlags(listCmd, &listPage, &listLimit)
	listflags.AddJSONFlag(listCmd, &listJSON)

	readyCmd.Flags().IntVar(&readyLimit, "limit", 20, "Maximum number of tasks to show (0 for all)")
	listflags.AddJSONFlag(readyCmd, &readyJSON)
}

func resolveDescriptionFromStdin(description string, reader io.Reader) (string, error) {
	if description != "-" {
		return description, nil
	}

	input, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read description from stdin: %w", err)
	}

	value := strings.TrimSuffix(string(input), "\n")
	value = strings.TrimSuffix(value, "\r")
	return value, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("description") {
		desc, err := resolveDescriptionFromStdin(createDescription, cmd.InOrStdin())
		if err != nil {
			return err
		}
		createDescription = desc
	}

	var opts task.CreateOptions
	if createEdit || (!createNoEdit && editor.IsInteractive()) {
		data := editor.DefaultCreateData()
		if len(args) > 0 {
			data.Title = args[0]
		}
		if cmd.Flags().Changed("priority") {
			data.Priority = createPriority
		}
		if cmd.Flags().Changed("description") {
			data.Description = createDescription
		}
		if cmd.Flags().Changed("due") {
			data.DueDate = createDue
		}

		parsed, err := editor.EditTaskWithData(data)
		if err != nil {
			return err
		}
		opts = parsed.ToCreateOptions()
	} else {
		if len(args) == 0 {
			return fmt.Errorf("title is required (use --edit to open editor)")
		}
		priority, err := task.ParsePriority(createPriority)
		if err != nil {
			return err
		}
		due, err := task.ParseDueDate(createDue)
		if err != nil {
			return err
		}
		opts = task.CreateOptions{
			Title:       args[0],
			Description: createDescription,
			Priority:    priority,
			DueDate:     due,
		}
	}

	svc, release, err := openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	// Resolve prefixes before creating so a typo leaves nothing behind.
	depIDs, err := resolveTaskIDs(ctx, svc, createDependsOn)
	if err != nil {
		return err
	}

	created, err := svc.Create(ctx, opts)
	if err != nil {
		return err
	}
	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", highlight(created.ID), created.Title)

	if len(depIDs) == 0 {
		return nil
	}
	report, err := svc.AddMultipleDependencies(ctx, created.ID, depIDs)
	if err != nil {
		return err
	}
	printBatchReport(cmd.OutOrStdout(), report, highlight)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("description") {
		desc, err := resolveDescriptionFromStdin(updateDescription, cmd.InOrStdin())
		if err != nil {
			return err
		}
		updateDescription = desc
	}

	hasFlags := hasChangedFlags(cmd, "title", "description", "status", "priority", "due", "clear-due")

	svc, release, err := openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	ids, err := resolveTaskIDs(ctx, svc, args)
	if err != nil {
		return err
	}

	var flagOpts task.UpdateOptions
	if hasFlags {
		flagOpts, err = updateOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
	}

	useEditor := shouldUseUpdateEditor(hasFlags, updateEdit, updateNoEdit, editor.IsInteractive())
	if !useEditor && !hasFlags {
		return fmt.Errorf("at least one update flag is required (use --edit to open editor)")
	}

	updated := make([]*task.Task, 0, len(ids))
	for _, id := range ids {
		opts := flagOpts
		if useEditor {
			existing, err := svc.Get(ctx, id)
			if err != nil {
				return err
			}
			data := editor.DataFromTask(existing)
			applyFlagsToEditorData(cmd, &data)

			parsed, err := editor.EditTaskWithData(data)
			if err != nil {
				return err
			}
			opts = parsed.ToUpdateOptions(existing.Status)
		}

		item, err := svc.Update(ctx, id, opts)
		if err != nil {
			return explainError(err)
		}
		updated = append(updated, item)
	}

	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	for _, item := range updated {
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", highlight(item.ID), item.Title)
	}
	return nil
}

func updateOptionsFromFlags(cmd *cobra.Command) (task.UpdateOptions, error) {
	var opts task.UpdateOptions
	if cmd.Flags().Changed("title") {
		opts.Title = &updateTitle
	}
	if cmd.Flags().Changed("description") {
		opts.Description = &updateDescription
	}
	if cmd.Flags().Changed("status") {
		status, err := task.ParseStatus(updateStatus)
		if err != nil {
			return opts, err
		}
		opts.Status = &status
	}
	if cmd.Flags().Changed("priority") {
		priority, err := task.ParsePriority(updatePriority)
		if err != nil {
			return opts, err
		}
		opts.Priority = &priority
	}
	if cmd.Flags().Changed("due") {
		due, err := task.ParseDueDate(updateDue)
		if err != nil {
			return opts, err
		}
		if due == nil {
			opts.ClearDueDate = true
		}
		opts.DueDate = due
	}
	if updateClearDue {
		opts.ClearDueDate = true
	}
	return opts, nil
}

func applyFlagsToEditorData(cmd *cobra.Command, data *editor.TaskData) {
	if cmd.Flags().Changed("title") {
		data.Title = updateTitle
	}
	if cmd.Flags().Changed("description") {
		data.Description = updateDescription
	}
	if cmd.Flags().Changed("status") {
		data.Status = updateStatus
	}
	if cmd.Flags().Changed("priority") {
		data.Priority = updatePriority
	}
	if cmd.Flags().Changed("due") {
		data.DueDate = updateDue
	}
	if updateClearDue {
		data.DueDate = ""
	}
}

func shouldUseUpdateEditor(hasUpdateFlags bool, editFlag bool, noEditFlag bool, interactive bool) bool {
	if editFlag {
		return true
	}
	if noEditFlag {
		return false
	}
	if hasUpdateFlags {
		return false
	}
	return interactive
}

// statusRunner returns a RunE that moves each argument to status.
func statusRunner(status task.Status, verb string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
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
		highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, err := svc.SetStatus(ctx, id, status)
			if err != nil {
				return explainError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", verb, highlight(item.ID), item.Title)
		}
		return nil
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
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
	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		item, err := svc.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := svc.Delete(ctx, id); err != nil {
			return explainError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %s\n", highlight(item.ID), item.Title)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
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
	details := make([]*task.TaskDetail, 0, len(ids))
	for _, id := range ids {
		detail, err := svc.Show(ctx, id)
		if err != nil {
			return err
		}
		details = append(details, detail)
	}

	if showJSON {
		return encodeJSON(cmd.OutOrStdout(), details)
	}

	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	now := time.Now()
	for i, detail := range details {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "---")
		}
		printTaskDetail(cmd.OutOrStdout(), detail, highlight, now)
	}
	return nil
}

func listOptionsFromFlags() (task.ListOptions, error) {
	opts := task.ListOptions{Page: listPage, Limit: listLimit}
	if listStatus != "" {
		status, err := task.ParseStatus(listStatus)
		if err != nil {
			return opts, err
		}
		opts.Filter.Status = status
	}
	if listPriority != "" {
		priority, err := task.ParsePriority(listPriority)
		if err != nil {
			return opts, err
		}
		opts.Filter.Priority = priority
	}
	opts.Filter.Title = strings.TrimSpace(listTitle)

	sort, err := task.ParseSort(listSort)
	if err != nil {
		return opts, err
	}
	opts.Sort = sort
	return opts, nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := listOptionsFromFlags()
	if err != nil {
		return err
	}

	svc, release, err := openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	result, err := svc.List(ctx, opts)
	if err != nil {
		return err
	}

	if listJSON {
		return encodeJSON(cmd.OutOrStdout(), result.Tasks)
	}

	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	printTaskTable(cmd.OutOrStdout(), result.Tasks, highlight, time.Now())
	if footer := formatPagination(result.Pagination); footer != "" && result.Pagination.TotalPages > 1 {
		fmt.Fprintln(cmd.OutOrStdout(), footer)
	}
	return nil
}

func runReady(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, release, err := openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	tasks, err := svc.Ready(ctx, readyLimit)
	if err != nil {
		return err
	}

	if readyJSON {
		return encodeJSON(cmd.OutOrStdout(), tasks)
	}

	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	printTaskTable(cmd.OutOrStdout(), tasks, highlight, time.Now())
	return nil
}
