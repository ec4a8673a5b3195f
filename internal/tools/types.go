// Package tools defines the callable tool unit and the process-wide registry
// that maps tool names to the currently active unit.
//
// Architecture:
//
//	Store → Loader → Registry.Put() → Dispatcher → Registry.Get() → Tool.Execute()
package tools

import (
	"context"
	"regexp"
	"time"
)

// ToolCategory classifies tools for discovery listings.
type ToolCategory string

const (
	// CategoryMeta covers tools that create or inspect other tools.
	CategoryMeta ToolCategory = "/meta"

	// CategoryFilesystem covers file read/write/list tools.
	CategoryFilesystem ToolCategory = "/filesystem"

	// CategoryProcess covers tools that spawn external processes.
	CategoryProcess ToolCategory = "/process"

	// CategoryResearch covers tools calling third-party APIs.
	CategoryResearch ToolCategory = "/research"

	// CategoryStore is assigned to every tool loaded from the unit store.
	CategoryStore ToolCategory = "/store"
)

// ToolSource records where a tool implementation came from.
type ToolSource string

const (
	SourceBuiltin ToolSource = "builtin"
	SourceStore   ToolSource = "store"
)

// Reserved tool names handled specially by the dispatcher.
const (
	// CodeExecutorName is the built-in code execution capability.
	// It bypasses the registry and can never be shadowed or reloaded.
	CodeExecutorName = "go_executor"

	// CreatorName is the tool whose success triggers self-extension.
	CreatorName = "tool_creator"
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether name is a usable tool identifier.
// Names double as store keys, so path separators and dots are rejected.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// ExecuteFunc is the signature for tool execution.
// Input and output are JSON-like structured values.
type ExecuteFunc func(ctx context.Context, input map[string]any) (map[string]any, error)

// Descriptor is the metadata a tool reports about itself.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Tool is one loaded, callable capability unit.
// A Tool is never mutated after it has been handed to the Registry;
// reloading builds a new Tool that replaces the old one.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does.
	Description string

	// Category classifies the tool for listings.
	Category ToolCategory

	// Source tells built-ins apart from store-loaded units.
	Source ToolSource

	// Execute runs the tool with the given input.
	Execute ExecuteFunc

	// Schema is the JSON schema of the accepted input.
	Schema map[string]any

	// Validator checks input against Schema. Nil when the schema is absent
	// or did not compile.
	Validator InputValidator

	// Hash is the sha256 of the unit source (store tools only).
	Hash string

	// LoadedAt is when the unit was built.
	LoadedAt time.Time
}

// InputValidator checks an input value against a compiled schema.
type InputValidator interface {
	Validate(v interface{}) error
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if !ValidName(t.Name) {
		return ErrToolNameInvalid
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Describe returns the tool's self-reported descriptor.
func (t *Tool) Describe() Descriptor {
	schema := t.Schema
	if schema == nil {
		schema = EmptySchema()
	}
	return Descriptor{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}
}

// EmptySchema is the schema of a tool that takes no input.
func EmptySchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []any{},
	}
}
