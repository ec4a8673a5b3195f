package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constTool(name, marker string) *Tool {
	return &Tool{
		Name:     name,
		Category: CategoryStore,
		Source:   SourceStore,
		Execute: func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return map[string]any{"marker": marker}, nil
		},
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d tools", reg.Count())
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(constTool("test_tool", "a")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := reg.Get("test_tool")
	if got == nil {
		t.Fatal("Get returned nil for registered tool")
	}
	if got.Name != "test_tool" {
		t.Errorf("got name %q, want %q", got.Name, "test_tool")
	}
	if reg.Get("missing") != nil {
		t.Error("Get should return nil for unknown tools")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(constTool("dupe", "a")))

	err := reg.Register(constTool("dupe", "b"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolAlreadyRegistered))
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()
	noop := func(ctx context.Context, input map[string]any) (map[string]any, error) { return nil, nil }

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{name: "empty name", tool: &Tool{Name: "", Execute: noop}, wantErr: ErrToolNameEmpty},
		{name: "path name", tool: &Tool{Name: "../etc", Execute: noop}, wantErr: ErrToolNameInvalid},
		{name: "nil execute", tool: &Tool{Name: "ok"}, wantErr: ErrToolExecuteNil},
		{name: "reserved", tool: &Tool{Name: CodeExecutorName, Execute: noop}, wantErr: ErrToolReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.tool)
			assert.ErrorIs(t, err, tt.wantErr)
			_, err = reg.Put(tt.tool)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPutReplacesAndReturnsPrevious(t *testing.T) {
	reg := NewRegistry()

	old := constTool("x", "old")
	prev, err := reg.Put(old)
	require.NoError(t, err)
	assert.Nil(t, prev)

	prev, err = reg.Put(constTool("x", "new"))
	require.NoError(t, err)
	assert.Same(t, old, prev)

	out, err := reg.Get("x").Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "new", out["marker"])
	assert.Equal(t, 1, reg.Count())
}

func TestPutAfterRegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(constTool("x", "builtin")))

	_, err := reg.Put(constTool("x", "store"))
	require.NoError(t, err)

	out, _ := reg.Get("x").Execute(context.Background(), nil)
	assert.Equal(t, "store", out["marker"])
}

func TestConcurrentPutGetSeesOldOrNew(t *testing.T) {
	reg := NewRegistry()
	old := constTool("x", "old")
	_, err := reg.Put(old)
	require.NoError(t, err)

	replacements := make([]*Tool, 50)
	valid := map[*Tool]bool{old: true}
	for i := range replacements {
		replacements[i] = constTool("x", fmt.Sprintf("v%d", i))
		valid[replacements[i]] = true
	}

	var wg sync.WaitGroup
	var bad sync.Map
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				got := reg.Get("x")
				if !valid[got] {
					bad.Store(got, true)
				}
			}
		}()
	}
	for _, r := range replacements {
		wg.Add(1)
		go func(r *Tool) {
			defer wg.Done()
			_, _ = reg.Put(r)
		}(r)
	}
	// Unrelated names are created concurrently too.
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = reg.Put(constTool(fmt.Sprintf("other_%d", i), "o"))
		}(i)
	}
	wg.Wait()

	count := 0
	bad.Range(func(_, _ any) bool { count++; return true })
	assert.Zero(t, count, "reader observed a tool that was never installed")
	assert.Equal(t, 21, reg.Count())
}

func TestNamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		reg.MustRegister(constTool(n, n))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Names())
}

func TestDescriptorsDefaultSchema(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(constTool("bare", "b"))

	d := reg.Descriptors()
	require.Len(t, d, 1)
	assert.Equal(t, "bare", d[0].Name)
	assert.Equal(t, "object", d[0].InputSchema["type"])
}

func TestValidName(t *testing.T) {
	for _, ok := range []string{"a", "hello_world", "_x1", "Tool2"} {
		assert.True(t, ValidName(ok), ok)
	}
	for _, bad := range []string{"", "1abc", "a-b", "a/b", "a.b", "..", "a b"} {
		assert.False(t, ValidName(bad), bad)
	}
}
