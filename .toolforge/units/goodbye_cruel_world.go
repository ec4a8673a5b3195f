package goodbye_cruel_world

import "fmt"

func Describe() map[string]any {
	return map[string]any{
		"name":        "goodbye_cruel_world",
		"description": "Prints a simple 'Goodbye Cruel World' message. Ignores all input.",
		"input_schema": map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []any{},
		},
	}
}

func Invoke(input map[string]any) (map[string]any, error) {
	fmt.Printf("[goodbye_cruel_world] tool was executed with input: %v\n", input)
	return map[string]any{
		"status":  "success",
		"message": "Goodbye, cruel world, from the dynamically loaded tool!",
	}, nil
}
