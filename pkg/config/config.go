// Package config loads the service configuration from an optional YAML
// file and TIMELINE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config defines server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Temporal TemporalConfig `yaml:"temporal"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type TemporalConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory or sqlite
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:         ":8080",
			MaxBodyBytes: 10 << 20,
		},
		Temporal: TemporalConfig{
			Addr:      "localhost:7233",
			Namespace: "default",
			TaskQueue: "timeline-task-queue",
		},
		Store: StoreConfig{
			Driver: StoreMemory,
			Path:   "timeline.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, if not empty, or from the file named
// by TIMELINE_CONFIG_PATH, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TIMELINE_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if addr := os.Getenv("TIMELINE_HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if maxStr := os.Getenv("TIMELINE_HTTP_MAX_BODY_BYTES"); maxStr != "" {
		n, err := strconv.ParseInt(maxStr, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIMELINE_HTTP_MAX_BODY_BYTES: %w", err)
		}
		cfg.HTTP.MaxBodyBytes = n
	}
	if addr := os.Getenv("TIMELINE_TEMPORAL_ADDR"); addr != "" {
		cfg.Temporal.Addr = addr
	}
	if ns := os.Getenv("TIMELINE_TEMPORAL_NAMESPACE"); ns != "" {
		cfg.Temporal.Namespace = ns
	}
	if queue := os.Getenv("TIMELINE_TEMPORAL_TASK_QUEUE"); queue != "" {
		cfg.Temporal.TaskQueue = queue
	}
	if driver := os.Getenv("TIMELINE_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}
	if storePath := os.Getenv("TIMELINE_STORE_PATH"); storePath != "" {
		cfg.Store.Path = storePath
	}
	if level := os.Getenv("TIMELINE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level. Unknown names
// fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
