// Package config loads toolforge configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "toolforge.yaml"

// Config holds all toolforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP transport
	Server ServerConfig `yaml:"server"`

	// Where tool units are persisted
	Store StoreConfig `yaml:"store"`

	// Unit loading
	Loader LoaderConfig `yaml:"loader"`

	// Request dispatch
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Code execution and process-spawning tools
	Execution ExecutionConfig `yaml:"execution"`

	// Third-party services used by built-in tools
	Integrations IntegrationsConfig `yaml:"integrations"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	AllowedOrigins  []string `yaml:"allowed_origins"` // CORS; "*" allows any
}

// Store backends.
const (
	BackendDir    = "dir"
	BackendSQLite = "sqlite"
)

// StoreConfig configures the unit store.
type StoreConfig struct {
	Backend      string `yaml:"backend"`       // dir, sqlite
	Dir          string `yaml:"dir"`           // dir backend root
	DatabasePath string `yaml:"database_path"` // sqlite backend file
	Watch        bool   `yaml:"watch"`         // reload units edited on disk (dir only)
	Debounce     string `yaml:"debounce"`
}

// LoaderConfig configures unit loading.
type LoaderConfig struct {
	// Concurrent loads during the startup scan
	Concurrency int `yaml:"concurrency"`

	// Imports a unit may not use. Not a sandbox.
	BlockedImports []string `yaml:"blocked_imports"`
}

// DispatchConfig configures request dispatch.
type DispatchConfig struct {
	// Check input against the tool's schema before invoking it
	ValidateInput bool `yaml:"validate_input"`
}

// ExecutionConfig configures go_executor and process tools.
type ExecutionConfig struct {
	// os.Exit in executed code panics instead of exiting, and go_executor
	// code and store units may not contain go statements
	Restricted bool `yaml:"restricted"`

	// Timeout for go_runner_tool and exiftool_interface
	ProcessTimeout string `yaml:"process_timeout"`

	// Working directory for spawned processes
	WorkingDirectory string `yaml:"working_directory"`
}

// IntegrationsConfig configures third-party services.
type IntegrationsConfig struct {
	Gemini GeminiIntegration `yaml:"gemini"`
}

// GeminiIntegration configures gemini_query_tool.
type GeminiIntegration struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "toolforge",
		Version: "0.3.0",

		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     "30s",
			WriteTimeout:    "5m",
			ShutdownTimeout: "10s",
			AllowedOrigins:  []string{"*"},
		},

		Store: StoreConfig{
			Backend:      BackendDir,
			Dir:          ".toolforge/units",
			DatabasePath: ".toolforge/units.db",
			Watch:        true,
			Debounce:     "300ms",
		},

		Loader: LoaderConfig{
			Concurrency: 4,
		},

		Execution: ExecutionConfig{
			Restricted:       true,
			ProcessTimeout:   "30s",
			WorkingDirectory: ".",
		},

		Integrations: IntegrationsConfig{
			Gemini: GeminiIntegration{
				Enabled: true,
				Model:   "gemini-2.5-flash",
				Timeout: "60s",
			},
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: true,
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("TOOLFORGE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if dir := os.Getenv("TOOLFORGE_STORE_DIR"); dir != "" {
		c.Store.Dir = dir
	}
	if path := os.Getenv("TOOLFORGE_DB"); path != "" {
		c.Store.DatabasePath = path
		c.Store.Backend = BackendSQLite
	}

	// Gemini key (GEMINI_API_KEY wins when both are set)
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Integrations.Gemini.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Integrations.Gemini.APIKey = key
	}
}

// GetReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 5*time.Minute)
}

// GetShutdownTimeout returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetWatchDebounce returns the store watcher debounce.
func (c *Config) GetWatchDebounce() time.Duration {
	return parseDuration(c.Store.Debounce, 300*time.Millisecond)
}

// GetProcessTimeout returns the timeout for process-spawning tools.
func (c *Config) GetProcessTimeout() time.Duration {
	return parseDuration(c.Execution.ProcessTimeout, 30*time.Second)
}

// GetGeminiTimeout returns the Gemini request timeout.
func (c *Config) GetGeminiTimeout() time.Duration {
	return parseDuration(c.Integrations.Gemini.Timeout, 60*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set (or TOOLFORGE_ADDR)")
	}

	switch c.Store.Backend {
	case BackendDir:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir must be set for the %s backend", BackendDir)
		}
	case BackendSQLite:
		if c.Store.DatabasePath == "" {
			return fmt.Errorf("store.database_path must be set for the %s backend", BackendSQLite)
		}
	default:
		return fmt.Errorf("invalid store backend: %q (valid: %s, %s)", c.Store.Backend, BackendDir, BackendSQLite)
	}

	if c.Loader.Concurrency < 0 {
		return fmt.Errorf("loader.concurrency must not be negative, got %d", c.Loader.Concurrency)
	}

	return nil
}

// IsGeminiEnabled reports whether gemini_query_tool should be registered.
func (c *Config) IsGeminiEnabled() bool {
	return c.Integrations.Gemini.Enabled && c.Integrations.Gemini.APIKey != ""
}
