package hello_world

import "fmt"

func Describe() map[string]any {
	return map[string]any{
		"name":        "hello_world",
		"description": "Prints a simple 'Hello World' message. Ignores all input.",
		"input_schema": map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []any{},
		},
	}
}

func Invoke(input map[string]any) (map[string]any, error) {
	fmt.Printf("[hello_world] tool was executed with input: %v\n", input)
	return map[string]any{
		"status":  "success",
		"message": "Hello from the dynamically loaded hello_world tool!",
	}, nil
}
