package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"toolforge/internal/logging"
	"toolforge/internal/tools"

	"google.golang.org/genai"
)

// =============================================================================
// GEMINI
// =============================================================================

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// ErrNoAnswer is returned when the model produced no text.
var ErrNoAnswer = errors.New("gemini returned no text")

// Answerer answers a free-form question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// GeminiClient answers questions with the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GOOGLE_API_KEY or GEMINI_API_KEY)")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Answer sends question as a single user turn and returns the reply text.
func (g *GeminiClient) Answer(ctx context.Context, question string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(question), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrNoAnswer)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: response had no text parts", ErrNoAnswer)
	}
	return text, nil
}

type geminiQueryInput struct {
	Question string `json:"question" jsonschema:"description=The question to ask the Gemini API."`
}

// GeminiQueryTool returns a tool that forwards a question to answerer.
func GeminiQueryTool(answerer Answerer) *tools.Tool {
	return &tools.Tool{
		Name:        "gemini_query_tool",
		Description: "Queries the Google Gemini API with a question and returns the answer.",
		Category:    tools.CategoryResearch,
		Execute: func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return executeGeminiQuery(ctx, answerer, input)
		},
		Schema: tools.SchemaFor(&geminiQueryInput{}),
	}
}

func executeGeminiQuery(ctx context.Context, answerer Answerer, input map[string]any) (map[string]any, error) {
	question, _ := input["question"].(string)
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("missing required input: question")
	}

	logging.ToolsDebug("gemini_query_tool: %d chars", len(question))
	answer, err := answerer.Answer(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("an error occurred while querying Gemini API: %w", err)
	}

	return map[string]any{
		"status":   "success",
		"response": answer,
	}, nil
}
