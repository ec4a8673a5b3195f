package blueberry_greeting

import "fmt"

func Describe() map[string]any {
	return map[string]any{
		"name":        "blueberry_greeting",
		"description": "A tool that outputs 'hello blueberry'.",
		"input_schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "A message to include in the output.",
				},
			},
			"required": []any{"message"},
		},
	}
}

func Invoke(input map[string]any) (map[string]any, error) {
	fmt.Printf("[blueberry_greeting] tool was executed with input: %v\n", input)

	message, ok := input["message"].(string)
	if !ok {
		message = "No message provided."
	}
	return map[string]any{
		"status":  "success",
		"message": "This is the blueberry_greeting tool. Your message was: " + message,
	}, nil
}
