package resolver

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/example/swagdoc/internal/openapi"
)

// TypedValue converts a literal from a tag or directive to the JSON type of
// s. Literals that do not parse are kept as strings.
func TypedValue(raw string, s *openapi.Schema) any {
	if s == nil {
		return raw
	}
	switch s.Type {
	case "integer":
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	case "array":
		if strings.HasPrefix(raw, "[") {
			var v []any
			if err := json.Unmarshal([]byte(raw), &v); err == nil {
				return v
			}
		}
		parts := strings.Split(raw, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, TypedValue(strings.TrimSpace(p), s.Items))
		}
		return out
	case "object":
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}
