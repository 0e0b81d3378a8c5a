// Package pipeline runs one post from brief to publish:
// fetch, generate, image, notify, approve, publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"auto_social_publisher/approval"
	"auto_social_publisher/failure"
	"auto_social_publisher/generator"
	"auto_social_publisher/notify"
	"auto_social_publisher/publisher"
	"auto_social_publisher/tags"
)

type DocumentSource interface {
	FetchAll(ctx context.Context, ids ...string) ([]string, error)
}

type ContentGenerator interface {
	Generate(ctx context.Context, req generator.Request) (generator.Content, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, description string) ([]byte, error)
}

type ImageHost interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, route publisher.Route, content publisher.TextSource, imageURL string) (publisher.Result, error)
}

// Pipeline wires the collaborators of a run. Every field except Logger and
// Now is required.
type Pipeline struct {
	Documents DocumentSource
	Generator ContentGenerator
	Images    ImageGenerator
	Host      ImageHost
	Notifier  notify.Notifier
	Approver  approval.Approver
	Publisher Publisher

	Logger *zap.Logger
	Now    func() time.Time
}

type Request struct {
	Route       string
	Prompt      string
	SchemaDocID string
	SystemDocID string
	// DryRun stops after the preview is rendered.
	DryRun bool
}

// Outcome reports how far a run got.
type Outcome struct {
	RunID string
	// Selector is the route as given, lowercased. It picks the schema tag.
	Selector    string
	Route       publisher.Route
	Content     generator.Content
	Title       string
	ImageURL    string
	PreviewHTML string
	Notified    bool
	Approved    bool
	Published   bool
	Result      publisher.Result
	// Skipped explains why an approved post was not sent.
	Skipped string
}

func (p *Pipeline) check() error {
	var errs []error
	for _, dep := range []struct {
		name    string
		missing bool
	}{
		{"documents", p.Documents == nil},
		{"generator", p.Generator == nil},
		{"images", p.Images == nil},
		{"host", p.Host == nil},
		{"notifier", p.Notifier == nil},
		{"approver", p.Approver == nil},
		{"publisher", p.Publisher == nil},
	} {
		if dep.missing {
			errs = append(errs, fmt.Errorf("pipeline: %s is required", dep.name))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	if err := p.check(); err != nil {
		return Outcome{}, err
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	out := Outcome{
		RunID:    uuid.NewString(),
		Selector: publisher.Selector(req.Route),
		Route:    publisher.ParseRoute(req.Route),
	}
	logger = logger.Named("pipeline").With(
		zap.String("run_id", out.RunID),
		zap.String("selector", out.Selector),
		zap.String("route", string(out.Route)))

	docs, err := p.Documents.FetchAll(ctx, req.SchemaDocID, req.SystemDocID)
	if err != nil {
		return out, fmt.Errorf("fetch documents: %w", err)
	}
	bundle, err := generator.BuildBundle(docs[0], out.Selector)
	if err != nil {
		return out, fmt.Errorf("build schema bundle: %w", err)
	}
	system := generator.SystemConfig(tags.ExtractAll(docs[1]))
	logger.Debug("documents loaded", zap.Int("system_tags", len(system)))

	out.Content, err = p.Generator.Generate(ctx, generator.Request{
		Route:      out.Selector,
		UserPrompt: req.Prompt,
		System:     system,
		Bundle:     bundle,
		Now:        now(),
	})
	if err != nil {
		return out, fmt.Errorf("generate content: %w", err)
	}

	var caption, suggestion string
	for _, f := range []struct {
		path string
		dst  *string
	}{
		{generator.PathTitle, &out.Title},
		{generator.PathCaption, &caption},
		{generator.PathImageSuggestion, &suggestion},
	} {
		if *f.dst, err = out.Content.Lookup(f.path); err != nil {
			return out, fmt.Errorf("read generated content: %w", err)
		}
	}

	img, err := p.Images.Generate(ctx, suggestion)
	if err != nil {
		return out, fmt.Errorf("generate image: %w", err)
	}
	if out.ImageURL, err = p.Host.Upload(ctx, img); err != nil {
		return out, fmt.Errorf("host image: %w", err)
	}
	logger.Info("image hosted", zap.String("url", out.ImageURL))

	preview := notify.Preview{Title: out.Title, Caption: caption, ImageURL: out.ImageURL}
	if out.PreviewHTML, err = notify.RenderPreview(preview); err != nil {
		return out, err
	}
	if req.DryRun {
		logger.Info("dry run, stopping before notification")
		return out, nil
	}

	areq := approval.Request{
		RunID:       out.RunID,
		Title:       out.Title,
		Caption:     caption,
		ImageURL:    out.ImageURL,
		PreviewHTML: out.PreviewHTML,
	}
	if prep, ok := p.Approver.(approval.Preparer); ok {
		if preview.ReviewURL, err = prep.Prepare(ctx, areq); err != nil {
			return out, fmt.Errorf("prepare approval: %w", err)
		}
		if out.PreviewHTML, err = notify.RenderPreview(preview); err != nil {
			return out, err
		}
	}
	if err := p.Notifier.Notify(ctx, preview); err != nil {
		return out, fmt.Errorf("notify: %w", err)
	}
	out.Notified = true

	if out.Approved, err = p.Approver.Await(ctx, areq); err != nil {
		return out, fmt.Errorf("await approval: %w", err)
	}
	if !out.Approved {
		logger.Info("post rejected")
		return out, nil
	}

	out.Result, err = p.Publisher.Publish(ctx, out.Route, out.Content, out.ImageURL)
	switch {
	case errors.Is(err, failure.ErrUnsupportedRoute), errors.Is(err, failure.ErrUnimplemented):
		logger.Warn("post not published", zap.Error(err))
		out.Skipped = err.Error()
		return out, nil
	case err != nil:
		return out, fmt.Errorf("publish: %w", err)
	}
	out.Published = true
	logger.Info("post published", zap.Int("status", out.Result.StatusCode))
	return out, nil
}
