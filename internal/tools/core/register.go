package core

import (
	"toolforge/internal/tools"
)

// RegisterAll registers all core filesystem tools with the given registry.
func RegisterAll(registry *tools.Registry) error {
	return tools.RegisterBuiltins(registry,
		FileReaderTool(),
		ReadFileContentTool(),
		FileWriterTool(),
		ListFilesTool(),
	)
}
