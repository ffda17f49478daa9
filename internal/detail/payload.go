package detail

import (
	"encoding/json"
	"strings"
)

// ParsePayload turns raw node I/O text into a JSON value for display.
// Blank text yields an empty object, JSON objects and arrays are returned as
// decoded, any other JSON value is wrapped as {"value": v} and text that is
// not JSON becomes {"message": text}.
func ParsePayload(text string) any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return map[string]any{"message": text}
	}
	switch v.(type) {
	case map[string]any, []any:
		return v
	default:
		return map[string]any{"value": v}
	}
}

// NodeNumber returns the last "-" segment of a display identifier, or "1"
// when that segment is empty. Identifiers without a separator come back whole.
func NodeNumber(identifier string) string {
	i := strings.LastIndex(identifier, "-")
	tail := identifier[i+1:]
	if tail == "" {
		return "1"
	}
	return tail
}

func normalizePayload(v any) any {
	switch p := v.(type) {
	case nil:
		return map[string]any{}
	case string:
		return ParsePayload(p)
	case []byte:
		return ParsePayload(string(p))
	case json.RawMessage:
		return ParsePayload(string(p))
	case map[string]any:
		if p == nil {
			return map[string]any{}
		}
		return p
	default:
		return v
	}
}
