package hello_blueberry_tool

func Describe() map[string]any {
	return map[string]any{
		"name":        "hello_blueberry_tool",
		"description": `A simple tool that outputs "hello blueberry".`,
		"input_schema": map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []any{},
		},
	}
}

func Invoke(input map[string]any) (map[string]any, error) {
	return map[string]any{"status": "success", "message": "hello blueberry"}, nil
}
