package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/Laisky/docs-search-mcp/library"
)

const (
	// logTextLimit caps each text field kept in MCP payload logs.
	logTextLimit = 256
	// httpLogBodyLimit caps the request and response bytes buffered for logging.
	httpLogBodyLimit = 16 << 10
)

// redactedKeys never reach the logs verbatim.
var redactedKeys = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"token":         {},
}

// redactMCPBody shortens tool output and hides credentials in MCP payloads.
func redactMCPBody(raw string) string {
	if raw == "" {
		return raw
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return raw
	}
	redacted := redactMCPValue(payload)
	out, err := json.Marshal(redacted)
	if err != nil {
		return raw
	}
	return string(out)
}

// redactMCPValue recursively redacts nested payloads.
func redactMCPValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return redactMCPMap(v)
	case []any:
		result := make([]any, 0, len(v))
		for _, item := range v {
			result = append(result, redactMCPValue(item))
		}
		return result
	default:
		return value
	}
}

// redactMCPMap truncates text content and masks credential fields of a JSON object.
func redactMCPMap(input map[string]any) map[string]any {
	output := make(map[string]any, len(input))
	for key, value := range input {
		if _, ok := redactedKeys[key]; ok {
			output[key] = "[redacted]"
			continue
		}
		if key == "text" {
			if text, ok := value.(string); ok {
				output[key] = truncateText(text)
				continue
			}
		}
		output[key] = redactMCPValue(value)
	}
	return output
}

func truncateText(text string) string {
	shortened, truncated := library.TruncateForLog([]byte(text), logTextLimit)
	if !truncated {
		return text
	}
	return fmt.Sprintf("%s...(%d bytes)", shortened, len(text))
}

// redactHookPayload renders a redacted JSON string for hook logging.
func redactHookPayload(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return redactMCPBody(string(data))
}
