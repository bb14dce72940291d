package main

import (
	"github.com/NHHoangTuan/todo-api/internal/mcptools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve task tools to an MCP client over stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Logs go to stderr; stdout carries the protocol.
	logger := newLogger(cfg)

	svc, release, err := openConfiguredService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	logger.Info("serving mcp over stdio", "backend", cfg.Store.Backend)
	return server.ServeStdio(mcptools.NewServer(svc, buildVersion))
}
