package meta

import (
	"context"
	"testing"

	"toolforge/internal/tools"
	"toolforge/internal/toolstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloUnit = `package hello

func Invoke(input map[string]any) (map[string]any, error) {
	return map[string]any{"message": "hi"}, nil
}`

func newStore(t *testing.T) *toolstore.DirStore {
	t.Helper()
	store, err := toolstore.NewDirStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestCreator_Success(t *testing.T) {
	store := newStore(t)
	tool := CreatorTool(store)

	out, err := tool.Execute(context.Background(), map[string]any{
		"tool_name": "hello",
		"tool_code": "\n\n" + helloUnit + "\n\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "hello", out["created_tool_name"])

	code, err := store.Read(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, helloUnit+"\n", string(code))
}

func TestCreator_RefusesExisting(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Create(context.Background(), "hello", []byte("original")))
	tool := CreatorTool(store)

	out, err := tool.Execute(context.Background(), map[string]any{
		"tool_name": "hello",
		"tool_code": helloUnit,
	})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["message"], "already exists")
	assert.NotContains(t, out, "created_tool_name")

	code, err := store.Read(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "original", string(code))
}

func TestCreator_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
	}{
		{"missing name", map[string]any{"tool_code": helloUnit}},
		{"missing code", map[string]any{"tool_name": "hello"}},
		{"path in name", map[string]any{"tool_name": "../hello", "tool_code": helloUnit}},
		{"leading digit", map[string]any{"tool_name": "1hello", "tool_code": helloUnit}},
		{"reserved executor", map[string]any{"tool_name": tools.CodeExecutorName, "tool_code": helloUnit}},
		{"reserved creator", map[string]any{"tool_name": tools.CreatorName, "tool_code": helloUnit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			out, err := CreatorTool(store).Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, "error", out["status"])

			names, err := store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestCreator_Schema(t *testing.T) {
	tool := CreatorTool(newStore(t))
	assert.ElementsMatch(t, []any{"tool_name", "tool_code"}, tool.Schema["required"])
}

func TestInspector_ListsRegisteredTools(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, newStore(t)))

	out, err := reg.Get("meta_tool_inspector").Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])

	available, ok := out["available_tools"].([]any)
	require.True(t, ok)

	var names []string
	for _, a := range available {
		names = append(names, a.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"meta_tool_inspector", "tool_creator", "go_executor"}, names)
}

func TestRegisterAll_Builtins(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, newStore(t)))

	creator := reg.Get(tools.CreatorName)
	require.NotNil(t, creator)
	assert.Equal(t, tools.SourceBuiltin, creator.Source)
	assert.NotNil(t, creator.Validator)

	assert.Error(t, RegisterAll(reg, newStore(t)), "second registration must fail")
}
