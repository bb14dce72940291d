package main

import (
	"fmt"

	"github.com/NHHoangTuan/todo-api/internal/plan"
	"github.com/NHHoangTuan/todo-api/internal/ui"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.hcl>",
	Short: "Create tasks and dependencies from an HCL plan",
	Long: `Create tasks and dependencies from an HCL plan.

Every task block is created first. Each depends_on entry then names
another block's label or an existing task ID. Rejected dependencies are
reported and do not undo the tasks already created.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importJSON bool

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Output the import result as JSON")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := plan.ParseFile(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	svc, release, err := openConfiguredService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	result, err := plan.Import(ctx, svc, p, logger)
	if err != nil {
		return err
	}
	if importJSON {
		return encodeJSON(cmd.OutOrStdout(), result)
	}

	highlight, err := idHighlighter(ctx, svc, ui.HighlightID)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, created := range result.Created {
		fmt.Fprintf(w, "Created task %s: %s [%s]\n", highlight(created.Task.ID), created.Task.Title, created.Key)
	}
	fmt.Fprintf(w, "Added %d dependencies\n", result.Edges)
	for _, failure := range result.Failed {
		line := fmt.Sprintf("Skipped %s -> %s: %s", failure.Key, failure.Reference, failure.Reason)
		fmt.Fprintln(w, ui.Failure(ui.Wrap(line, taskDetailLineWidth, 2)))
	}
	return nil
}
