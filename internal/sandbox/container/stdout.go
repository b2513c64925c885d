package container

import (
	"encoding/json"
	"strings"
)

// parseStdout implements the container strategy's output convention: a
// stdout payload that looks like JSON is parsed as JSON; anything else is
// returned as trimmed text.
func parseStdout(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 {
		return trimmed
	}
	switch raw[0] {
	case '{', '[':
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
		return trimmed
	default:
		return trimmed
	}
}
