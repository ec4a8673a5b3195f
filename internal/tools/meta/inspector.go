package meta

import (
	"context"

	"toolforge/internal/tools"
)

// InspectorTool returns a tool listing the descriptors of every tool
// currently registered, itself included.
func InspectorTool(registry *tools.Registry) *tools.Tool {
	return &tools.Tool{
		Name:        "meta_tool_inspector",
		Description: "Lists all available tools with their descriptions and required inputs. Use this to discover what tools you can use.",
		Category:    tools.CategoryMeta,
		Execute: func(ctx context.Context, input map[string]any) (map[string]any, error) {
			descs := registry.Descriptors()
			available := make([]any, 0, len(descs)+1)
			for _, d := range descs {
				available = append(available, descriptorMap(d))
			}
			available = append(available, descriptorMap(CodeExecutorDescriptor()))
			return map[string]any{
				"status":          "success",
				"available_tools": available,
			}, nil
		},
		Schema: tools.EmptySchema(),
	}
}

// CodeExecutorDescriptor describes the go_executor capability, which is
// never in the registry.
func CodeExecutorDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        tools.CodeExecutorName,
		Description: "Runs a Go code fragment or a complete package main program and returns whether it ran successfully and what it printed.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Go statements, optionally preceded by imports, or a full package main program.",
				},
			},
			"required": []any{"code"},
		},
	}
}

func descriptorMap(d tools.Descriptor) map[string]any {
	return map[string]any{
		"name":         d.Name,
		"description":  d.Description,
		"input_schema": d.InputSchema,
	}
}
