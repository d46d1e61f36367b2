package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseResponse extracts a tierResponse from raw model output. Models wrap
// JSON in markdown fences or prose often enough that we tolerate it: the
// parser takes the outermost brace-delimited span and unmarshals that.
func parseResponse(text string) (*tierResponse, error) {
	raw := strings.TrimSpace(text)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var resp tierResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("parse tier output: %w", err)
	}
	if resp.Category == "" {
		return nil, fmt.Errorf("tier output missing category")
	}
	if resp.Confidence < 0 {
		resp.Confidence = 0
	}
	if resp.Confidence > 1 {
		resp.Confidence = 1
	}
	return &resp, nil
}
