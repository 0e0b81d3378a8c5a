package generator

import (
	"context"
	"encoding/json"
)

// MockLLM answers without calling a model, for offline runs. Reply overrides
// the canned document when set.
type MockLLM struct {
	Reply string
}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	if m.Reply != "" {
		return m.Reply, nil
	}
	doc := map[string]any{
		"root_schema":   map[string]any{"name": "Offline draft"},
		"common_schema": map[string]any{"image_suggestion": "a notebook on a desk, morning light"},
		"output": map[string]any{
			"caption": "Draft generated offline.\n\n" + prompt.User,
			"post":    "Draft generated offline.",
		},
		"data": map[string]any{
			"social_content": map[string]any{
				"schema": map[string]any{"post": "Draft generated offline."},
			},
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
