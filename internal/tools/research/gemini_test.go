package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"toolforge/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerer struct {
	answer   string
	err      error
	question string
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string) (string, error) {
	f.question = question
	return f.answer, f.err
}

func TestGeminiQuery(t *testing.T) {
	fa := &fakeAnswerer{answer: "42"}
	tool := GeminiQueryTool(fa)

	out, err := tool.Execute(context.Background(), map[string]any{"question": "meaning of life?"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "success", "response": "42"}, out)
	assert.Equal(t, "meaning of life?", fa.question)
}

func TestGeminiQuery_MissingQuestion(t *testing.T) {
	fa := &fakeAnswerer{}
	_, err := GeminiQueryTool(fa).Execute(context.Background(), map[string]any{"question": "  "})
	assert.ErrorContains(t, err, "question")
	assert.Empty(t, fa.question, "nothing sent upstream")
}

func TestGeminiQuery_UpstreamError(t *testing.T) {
	fa := &fakeAnswerer{err: ErrNoAnswer}
	_, err := GeminiQueryTool(fa).Execute(context.Background(), map[string]any{"question": "q"})
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "", time.Second)
	assert.Error(t, err)
}

func TestRegisterAll(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, nil))
	assert.Zero(t, reg.Count())

	require.NoError(t, RegisterAll(reg, &fakeAnswerer{}))
	assert.True(t, reg.Has("gemini_query_tool"))

	assert.True(t, errors.Is(RegisterAll(reg, &fakeAnswerer{}), tools.ErrToolAlreadyRegistered))
}
