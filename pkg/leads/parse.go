package leads

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/leadscout-ai/leadscout/pkg/errors"
)

// ExtractJSON returns the JSON payload embedded in raw model output. It
// prefers the content of a ```json fenced block, falls back to a generic
// fenced block, and otherwise returns the trimmed input.
func ExtractJSON(raw string) string {
	for _, fence := range []string{"```json", "```"} {
		if idx := strings.Index(raw, fence); idx >= 0 {
			rest := raw[idx+len(fence):]
			if end := strings.Index(rest, "```"); end >= 0 {
				return strings.TrimSpace(rest[:end])
			}
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(raw)
}

// Parse decodes raw model output into leads. The payload may be a JSON array
// or a single JSON object, optionally wrapped in a markdown code fence.
func Parse(raw string) ([]Lead, error) {
	payload := ExtractJSON(raw)
	if payload == "" {
		return nil, errors.New(errors.CodeInvalidInput, "model output is empty", nil)
	}

	var list []Lead
	if err := json.Unmarshal([]byte(payload), &list); err == nil {
		return list, nil
	}

	var single Lead
	if err := json.Unmarshal([]byte(payload), &single); err == nil {
		return []Lead{single}, nil
	}

	snippet := payload
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	return nil, errors.New(errors.CodeInvalidInput, "model output is not valid lead JSON", nil).
		WithContext("raw", snippet)
}

// SortByScore orders leads from highest to lowest score, preserving the
// original order between equal scores.
func SortByScore(list []Lead) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})
}
