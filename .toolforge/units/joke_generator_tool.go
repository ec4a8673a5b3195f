package joke_generator_tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const endpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

func Describe() map[string]any {
	return map[string]any{
		"name":        "joke_generator_tool",
		"description": "Generates a random joke using the Google Gemini API.",
		"input_schema": map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []any{},
		},
	}
}

func Invoke(input map[string]any) (map[string]any, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		return failure("GOOGLE_API_KEY environment variable not set. Please set the API key to use this tool."), nil
	}

	joke, err := generate(apiKey, "Tell me a short, family-friendly joke.")
	if err != nil {
		return failure("Failed to generate joke: " + err.Error()), nil
	}
	return map[string]any{"status": "success", "joke": joke}, nil
}

func generate(apiKey, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"contents": []any{
			map[string]any{"parts": []any{map[string]any{"text": prompt}}},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		if e, ok := out["error"].(map[string]any); ok {
			return "", fmt.Errorf("gemini returned %d: %v", resp.StatusCode, e["message"])
		}
		return "", fmt.Errorf("gemini returned %d", resp.StatusCode)
	}

	candidates, _ := out["candidates"].([]any)
	for _, c := range candidates {
		cm, _ := c.(map[string]any)
		content, _ := cm["content"].(map[string]any)
		parts, _ := content["parts"].([]any)
		for _, p := range parts {
			pm, _ := p.(map[string]any)
			if text, ok := pm["text"].(string); ok && text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("gemini returned no text")
}

func failure(msg string) map[string]any {
	return map[string]any{"status": "error", "message": msg}
}
