// Package config handles loading todo-api.toml configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/NHHoangTuan/todo-api/internal/paths"
)

// ProjectFile is the name of the per-project config file.
const ProjectFile = "todo-api.toml"

// Store backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Environment variables that override the files.
const (
	EnvDatabaseURL = "TODO_API_DATABASE_URL"
	EnvDataDir     = "TODO_API_DATA_DIR"
)

// DefaultAddr is the HTTP listen address when none is configured.
const DefaultAddr = ":3000"

// Config represents the todo-api.toml configuration file.
type Config struct {
	Server Server `toml:"server"`
	Store  Store  `toml:"store"`
	Cache  Cache  `toml:"cache"`
	Log    Log    `toml:"log"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr string `toml:"addr"`
}

// Store selects and configures the task store.
type Store struct {
	// Backend is one of "file", "memory" or "postgres". Defaults to "file".
	Backend string `toml:"backend"`

	// Dir is the file store's data directory.
	Dir string `toml:"dir"`

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string `toml:"database-url"`
}

// Cache configures the list response cache.
type Cache struct {
	// TTL is a Go duration string, e.g. "30m". Empty keeps the default.
	TTL string `toml:"ttl"`
}

// Log configures structured logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// CacheTTL parses Cache.TTL. Zero means "use the cache default".
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("parse cache ttl %q: %w", c.Cache.TTL, err)
	}
	return ttl, nil
}

// Load loads configuration from projectDir and the global config file, then
// applies environment overrides and defaults.
func Load(projectDir string) (*Config, error) {
	globalPath, err := paths.DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, _, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(projectDir, ProjectFile))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, projectMeta)
	applyEnv(merged)
	if err := applyDefaults(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: unknown key %s", path, undecoded[0])
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, projectMeta toml.MetaData) *Config {
	merged := Config{}
	merged.Server.Addr = mergeString(projectMeta.IsDefined("server", "addr"), projectCfg.Server.Addr, globalCfg.Server.Addr)
	merged.Store.Backend = mergeString(projectMeta.IsDefined("store", "backend"), projectCfg.Store.Backend, globalCfg.Store.Backend)
	merged.Store.Dir = mergeString(projectMeta.IsDefined("store", "dir"), projectCfg.Store.Dir, globalCfg.Store.Dir)
	merged.Store.DatabaseURL = mergeString(projectMeta.IsDefined("store", "database-url"), projectCfg.Store.DatabaseURL, globalCfg.Store.DatabaseURL)
	merged.Cache.TTL = mergeString(projectMeta.IsDefined("cache", "ttl"), projectCfg.Cache.TTL, globalCfg.Cache.TTL)
	merged.Log.Level = mergeString(projectMeta.IsDefined("log", "level"), projectCfg.Log.Level, globalCfg.Log.Level)
	merged.Log.Format = mergeString(projectMeta.IsDefined("log", "format"), projectCfg.Log.Format, globalCfg.Log.Format)
	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func applyEnv(cfg *Config) {
	if url := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); url != "" {
		cfg.Store.DatabaseURL = url
	}
	if dir := strings.TrimSpace(os.Getenv(EnvDataDir)); dir != "" {
		cfg.Store.Dir = dir
	}
}

func applyDefaults(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendFile
	}
	switch cfg.Store.Backend {
	case BackendFile:
		dir, err := paths.DataDirOrDefault(cfg.Store.Dir)
		if err != nil {
			return err
		}
		cfg.Store.Dir = dir
	case BackendMemory:
	case BackendPostgres:
		if cfg.Store.DatabaseURL == "" {
			return fmt.Errorf("store backend %q requires database-url or %s", BackendPostgres, EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("unknown store backend %q (valid: %s, %s, %s)", cfg.Store.Backend, BackendFile, BackendMemory, BackendPostgres)
	}
	if _, err := cfg.CacheTTL(); err != nil {
		return err
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	return nil
}
