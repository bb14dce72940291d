package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/NHHoangTuan/todo-api/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (defaults to server.addr from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ttl, err := cfg.CacheTTL()
	if err != nil {
		return err
	}

	store, release, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	server, err := api.NewServer(api.ServerOptions{
		Store:    store,
		CacheTTL: ttl,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}
	logger.Info("starting server", "backend", cfg.Store.Backend, "addr", addr)
	return server.Serve(ctx, addr)
}
