package tools

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Path  string `json:"path" jsonschema:"description=File to read"`
	Limit int    `json:"limit,omitempty"`
}

func TestSchemaForReflectsStruct(t *testing.T) {
	s := SchemaFor(&sampleInput{})

	assert.Equal(t, "object", s["type"])
	if diff := cmp.Diff([]any{"path"}, s["required"]); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	path, ok := props["path"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", path["type"])
	assert.Equal(t, "File to read", path["description"])
	assert.NotContains(t, s, "$schema")
}

func TestCompileSchemaValidates(t *testing.T) {
	v, err := CompileSchema("sample", SchemaFor(&sampleInput{}))
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.NoError(t, v.Validate(map[string]any{"path": "/tmp/x"}))
	assert.Error(t, v.Validate(map[string]any{}))
	assert.Error(t, v.Validate(map[string]any{"path": 3.0}))
}

func TestCompileSchemaEmpty(t *testing.T) {
	v, err := CompileSchema("none", nil)
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestCompileSchemaInvalid(t *testing.T) {
	_, err := CompileSchema("broken", map[string]any{"type": 12})
	assert.Error(t, err)
}
