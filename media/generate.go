// Package media produces the post image and hosts it publicly.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"auto_social_publisher/failure"
)

// MaxPromptRunes bounds the sanitized prompt embedded in the generator URL.
const MaxPromptRunes = 100

var promptReplacer = strings.NewReplacer(" ", "-", ",", "", ".", "")

// SanitizePrompt replaces spaces with hyphens and drops commas and periods,
// then truncates the result to MaxPromptRunes runes.
func SanitizePrompt(s string) string {
	out := promptReplacer.Replace(s)
	if r := []rune(out); len(r) > MaxPromptRunes {
		out = string(r[:MaxPromptRunes])
	}
	return out
}

// Generator fetches images from a prompt-in-path endpoint such as
// https://image.pollinations.ai/prompt/.
type Generator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewGenerator(baseURL string, client *http.Client, logger *zap.Logger) *Generator {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Generator{baseURL: baseURL, client: client, logger: logger.Named("imagegen")}
}

// URL returns the request URL for description.
func (g *Generator) URL(description string) string {
	return g.baseURL + url.PathEscape(SanitizePrompt(description))
}

// Generate returns the raw image bytes for description.
func (g *Generator) Generate(ctx context.Context, description string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL(description), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: image generator: %w", failure.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: image generator: status %d", failure.ErrTransport, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: image generator: read body: %w", failure.ErrTransport, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image generator returned an empty body", failure.ErrUpstreamShape)
	}
	g.logger.Info("image generated",
		zap.Int("bytes", len(data)),
		zap.String("content_type", resp.Header.Get("Content-Type")))
	return data, nil
}
