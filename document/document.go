// Package document retrieves the plain text of Google Docs.
package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gdocs "google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"auto_social_publisher/failure"
	"auto_social_publisher/gauth"
)

// ErrNotFound is returned when the document id does not resolve.
var ErrNotFound = errors.New("document not found")

// Fetcher reads documents with credentials from a gauth.CredentialSource.
type Fetcher struct {
	creds    gauth.CredentialSource
	endpoint string
	logger   *zap.Logger
}

// NewFetcher builds a Fetcher. endpoint overrides the Docs API base URL and
// may be empty.
func NewFetcher(creds gauth.CredentialSource, endpoint string, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{creds: creds, endpoint: endpoint, logger: logger.Named("document")}
}

// Fetch returns the concatenated text runs of the document, in order.
func (f *Fetcher) Fetch(ctx context.Context, docID string) (string, error) {
	if docID == "" {
		return "", fmt.Errorf("%w: empty document id", ErrNotFound)
	}
	client, err := f.creds.Client(ctx)
	if err != nil {
		return "", err
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}
	svc, err := gdocs.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("docs: create service: %w", err)
	}

	doc, err := svc.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return "", classify(docID, err)
	}
	text := PlainText(doc)
	f.logger.Debug("fetched document", zap.String("doc_id", docID), zap.Int("chars", len(text)))
	return text, nil
}

// FetchAll fetches ids concurrently and returns their text in the same order.
// The first failure cancels the remaining requests.
func (f *Fetcher) FetchAll(ctx context.Context, ids ...string) ([]string, error) {
	out := make([]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			text, err := f.Fetch(gctx, id)
			if err != nil {
				return err
			}
			out[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PlainText concatenates every paragraph text run in document order.
// Tables and other structural elements are skipped.
func PlainText(doc *gdocs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var sb strings.Builder
	for _, el := range doc.Body.Content {
		if el == nil || el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe != nil && pe.TextRun != nil {
				sb.WriteString(pe.TextRun.Content)
			}
		}
	}
	return sb.String()
}

func classify(docID string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, docID)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: docs %s: %w", failure.ErrAuth, docID, err)
		}
	}
	if errors.Is(err, failure.ErrAuth) {
		return err
	}
	return fmt.Errorf("%w: docs %s: %w", failure.ErrTransport, docID, err)
}
