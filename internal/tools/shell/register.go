package shell

import (
	"time"

	"toolforge/internal/tools"
)

// Config holds settings shared by the process tools.
type Config struct {
	Timeout    time.Duration
	WorkingDir string
}

// RegisterAll registers all process tools with the given registry.
func RegisterAll(registry *tools.Registry, cfg Config) error {
	return tools.RegisterBuiltins(registry,
		GoRunnerTool(cfg),
		ExifToolTool(cfg),
	)
}
