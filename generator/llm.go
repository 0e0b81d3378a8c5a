package generator

import "context"

// LLMClient abstracts the model backend so it can be swapped or mocked.
// Complete must return the raw model text, which is expected to be a JSON object.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the provider-neutral configuration handed to concrete clients.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
