package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/NHHoangTuan/todo-api/internal/config"
	"github.com/NHHoangTuan/todo-api/internal/logging"
	"github.com/NHHoangTuan/todo-api/internal/pgstore"
	"github.com/NHHoangTuan/todo-api/task"
)

// loadConfig reads todo-api.toml from the working directory and the global
// config file.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return config.Load(cwd)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// openStore opens the backend named by cfg. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (task.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return task.NewMemoryStore(), func() {}, nil
	case config.BackendPostgres:
		store, err := pgstore.Open(ctx, cfg.Store.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := task.OpenFileStore(cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// openService loads config and returns a service over the configured store.
func openService(ctx context.Context) (*task.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return openConfiguredService(ctx, cfg, newLogger(cfg))
}

func openConfiguredService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*task.Service, func(), error) {
	store, release, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return task.NewService(store, task.Options{}), release, nil
}

// resolveTaskIDs expands unique ID prefixes to full task IDs.
func resolveTaskIDs(ctx context.Context, svc *task.Service, args []string) ([]string, error) {
	index, err := svc.IDIndex(ctx)
	if err != nil {
		return nil, err
	}
	resolved := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := index.Resolve(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		resolved = append(resolved, id)
	}
	return resolved, nil
}

// idHighlighter returns a func that highlights each ID's unique prefix.
func idHighlighter(ctx context.Context, svc *task.Service, highlight func(string, int) string) (func(string) string, error) {
	index, err := svc.IDIndex(ctx)
	if err != nil {
		return nil, err
	}
	return logHighlighter(index.PrefixLengths(), highlight), nil
}
