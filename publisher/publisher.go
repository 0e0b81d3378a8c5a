package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"auto_social_publisher/config"
	"auto_social_publisher/failure"
)

// TextSource resolves paths into the generated content.
type TextSource interface {
	Lookup(path string) (string, error)
}

// Post is what a platform receives.
type Post struct {
	Text     string
	ImageURL string
}

// Result is the platform's decoded answer, passed through untouched.
type Result struct {
	Platform   string          `json:"platform"`
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

type platform interface {
	Name() string
	// TextPath is where this platform's post text lives in the content.
	TextPath() string
	Publish(ctx context.Context, post Post) (Result, error)
}

// Publisher dispatches approved posts by route.
type Publisher struct {
	platforms map[Route]platform
	logger    *zap.Logger
}

// New wires every known platform. Missing tokens only fail when that
// platform is actually used.
func New(cfg config.PlatformsConfig, client *http.Client, logger *zap.Logger) *Publisher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		platforms: map[Route]platform{
			Twitter:   &twitter{cfg: cfg.Twitter, client: client},
			Facebook:  &facebook{cfg: cfg.Facebook, client: client},
			LinkedIn:  &linkedin{cfg: cfg.LinkedIn, client: client},
			Instagram: placeholder{name: "instagram", textPath: "output.caption"},
			Pinterest: placeholder{name: "pinterest", textPath: "output.caption"},
		},
		logger: logger.Named("publisher"),
	}
}

// Routes lists the routes with a publish branch, sorted.
func (p *Publisher) Routes() []Route {
	out := make([]Route, 0, len(p.platforms))
	for r := range p.platforms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Publish sends content to the platform selected by route. Unknown routes
// return failure.ErrUnsupportedRoute without making any request.
func (p *Publisher) Publish(ctx context.Context, route Route, content TextSource, imageURL string) (Result, error) {
	pl, ok := p.platforms[route]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", failure.ErrUnsupportedRoute, route)
	}
	text, err := content.Lookup(pl.TextPath())
	if err != nil {
		return Result{}, err
	}
	p.logger.Info("publishing", zap.String("platform", pl.Name()), zap.Int("text_len", len(text)))
	res, err := pl.Publish(ctx, Post{Text: text, ImageURL: imageURL})
	if err != nil {
		return Result{}, err
	}
	p.logger.Info("platform responded", zap.String("platform", pl.Name()), zap.Int("status", res.StatusCode))
	return res, nil
}

// do sends req and returns the decoded body as-is. Platform error payloads
// are not interpreted; only transport failures and non-JSON bodies fail.
func do(client *http.Client, name string, req *http.Request) (Result, error) {
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", failure.ErrTransport, name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: read body: %w", failure.ErrTransport, name, err)
	}
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return Result{}, fmt.Errorf("%w: %s: status %d with non-json body", failure.ErrUpstreamShape, name, resp.StatusCode)
	}
	return Result{Platform: name, StatusCode: resp.StatusCode, Body: json.RawMessage(body)}, nil
}

func postJSON(ctx context.Context, client *http.Client, name, url, bearer string, payload any) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	return do(client, name, req)
}
