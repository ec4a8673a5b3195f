package print_numbers_tool

import (
	"strconv"
	"strings"
)

func Describe() map[string]any {
	return map[string]any{
		"name":        "print_numbers_tool",
		"description": "A tool that prints numbers from 1 to 10.",
		"input_schema": map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []any{},
		},
	}
}

func Invoke(input map[string]any) (map[string]any, error) {
	numbers := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		numbers = append(numbers, strconv.Itoa(i))
	}
	return map[string]any{
		"status":  "success",
		"message": "Numbers from 1 to 10: " + strings.Join(numbers, ", "),
	}, nil
}
