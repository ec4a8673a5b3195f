package tools

import (
	"toolforge/internal/logging"
)

// RegisterBuiltins marks each tool as built in, compiles its input schema and
// registers it. A schema that fails to compile only disables validation.
func RegisterBuiltins(registry *Registry, builtins ...*Tool) error {
	for _, tool := range builtins {
		tool.Source = SourceBuiltin
		if tool.Validator == nil {
			v, err := CompileSchema(tool.Name, tool.Schema)
			if err != nil {
				logging.Get(logging.CategoryRegistry).Warn("Built-in %s has an unusable schema: %v", tool.Name, err)
			} else {
				tool.Validator = v
			}
		}
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
