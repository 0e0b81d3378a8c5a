// Package notify delivers the approval preview of a generated post.
package notify

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// SubjectPrefix marks approval mail so it stands out in an inbox.
const SubjectPrefix = "🔥FOR APPROVAL🔥 "

// Preview is what a reviewer sees before a post goes out.
type Preview struct {
	Title    string
	Caption  string // markdown
	ImageURL string
	// ReviewURL links to the approval page when approval runs over HTTP.
	ReviewURL string
}

// Subject returns the mail subject for title.
func Subject(title string) string {
	return SubjectPrefix + title
}

const previewSource = `<table>
  <tr><td><img src="{{ image_url }}" alt="{{ title }}"></td></tr>
  <tr><td>{{ caption|safe }}</td></tr>
{% if review_url %}  <tr><td><a href="{{ review_url }}">Review and approve</a></td></tr>
{% endif %}</table>
`

var (
	previewTpl   = pongo2.Must(pongo2.FromString(previewSource))
	captionOnce  sync.Once
	captionClean *bluemonday.Policy
)

// RenderPreview renders the HTML table used for mail and the review page.
// The caption is treated as markdown and sanitized after conversion.
func RenderPreview(p Preview) (string, error) {
	caption, err := CaptionHTML(p.Caption)
	if err != nil {
		return "", err
	}
	out, err := previewTpl.Execute(pongo2.Context{
		"title":      p.Title,
		"image_url":  p.ImageURL,
		"caption":    caption,
		"review_url": p.ReviewURL,
	})
	if err != nil {
		return "", fmt.Errorf("notify: render preview: %w", err)
	}
	return out, nil
}

// CaptionHTML converts markdown to sanitized HTML.
func CaptionHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("notify: convert caption: %w", err)
	}
	captionOnce.Do(func() {
		captionClean = bluemonday.UGCPolicy()
	})
	return captionClean.Sanitize(buf.String()), nil
}
