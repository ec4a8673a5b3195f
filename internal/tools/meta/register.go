package meta

import (
	"toolforge/internal/tools"
	"toolforge/internal/toolstore"
)

// RegisterAll registers the meta tools with the given registry.
func RegisterAll(registry *tools.Registry, store toolstore.Store) error {
	return tools.RegisterBuiltins(registry,
		CreatorTool(store),
		InspectorTool(registry),
	)
}
