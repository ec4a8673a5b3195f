package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
	"toolforge/internal/toolstore"
)

type creatorInput struct {
	ToolName string `json:"tool_name" jsonschema:"description=Identifier for the new tool: letters and digits and underscores. Becomes the store key."`
	ToolCode string `json:"tool_code" jsonschema:"description=Complete Go source for the tool. Must define Invoke(map[string]any) (map[string]any\\, error) and may define Describe() map[string]any."`
}

// CreatorTool returns the tool that writes new unit source to store.
// It only writes; the dispatcher activates the created tool.
func CreatorTool(store toolstore.Store) *tools.Tool {
	return &tools.Tool{
		Name:        tools.CreatorName,
		Description: "Creates a new Go tool from a string of code and saves it to the tool store. Use this to add a new, fully-formed tool.",
		Category:    tools.CategoryMeta,
		Execute: func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return executeCreate(ctx, store, input)
		},
		Schema: tools.SchemaFor(&creatorInput{}),
	}
}

func executeCreate(ctx context.Context, store toolstore.Store, input map[string]any) (map[string]any, error) {
	name, _ := input["tool_name"].(string)
	code, _ := input["tool_code"].(string)

	if name == "" || code == "" {
		return failure("Input must include both 'tool_name' and 'tool_code'."), nil
	}
	if !tools.ValidName(name) {
		return failure(fmt.Sprintf("'%s' is not a valid tool identifier. Use letters, numbers, and underscores.", name)), nil
	}
	if name == tools.CodeExecutorName || name == tools.CreatorName {
		return failure(fmt.Sprintf("'%s' is a reserved tool name.", name)), nil
	}

	exists, err := store.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check tool store: %w", err)
	}
	if exists {
		return failure(fmt.Sprintf("A tool named '%s' already exists.", name)), nil
	}

	logging.Tools("tool_creator: writing %s (%d bytes)", name, len(code))
	if err := store.Create(ctx, name, []byte(strings.TrimSpace(code)+"\n")); err != nil {
		if errors.Is(err, toolstore.ErrAlreadyExists) {
			return failure(fmt.Sprintf("A tool named '%s' already exists.", name)), nil
		}
		return failure(fmt.Sprintf("Failed to create tool: %v", err)), nil
	}

	return map[string]any{
		"status":            "success",
		"message":           fmt.Sprintf("Successfully created new tool '%s'.", name),
		"created_tool_name": name,
	}, nil
}

func failure(msg string) map[string]any {
	return map[string]any{
		"status":  "error",
		"message": msg,
	}
}
