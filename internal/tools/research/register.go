package research

import (
	"toolforge/internal/tools"
)

// RegisterAll registers the research tools. With a nil answerer nothing is
// registered, so a missing API key simply leaves the tool out.
func RegisterAll(registry *tools.Registry, answerer Answerer) error {
	if answerer == nil {
		return nil
	}
	return tools.RegisterBuiltins(registry, GeminiQueryTool(answerer))
}
