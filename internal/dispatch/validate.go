package dispatch

import (
	"encoding/json"
)

// toJSONValue normalizes input to the shapes encoding/json produces
// (float64 numbers, []any slices), which is what the schema validator
// understands. Input that cannot round-trip is passed through unchanged.
func toJSONValue(input map[string]any) any {
	data, err := json.Marshal(input)
	if err != nil {
		return input
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return input
	}
	return v
}
