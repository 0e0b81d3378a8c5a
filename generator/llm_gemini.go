package generator

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"auto_social_publisher/failure"
)

// GeminiLLM implements LLMClient with Gemini's JSON response mode.
type GeminiLLM struct {
	client *genai.Client
	model  string
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key missing; set GEMINI_API_KEY", failure.ErrAuth)
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiLLM{client: client, model: cfg.Model}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt.User), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
			return "", fmt.Errorf("%w: gemini: %w", failure.ErrAuth, err)
		}
		return "", fmt.Errorf("%w: gemini: %w", failure.ErrTransport, err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: gemini: empty candidates", failure.ErrUpstreamShape)
	}
	return text, nil
}
