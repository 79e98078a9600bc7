package output

import (
	"encoding/json"
)

// RenderJSON renders any value as indented JSON.
func RenderJSON(value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
