package publisher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"auto_social_publisher/config"
	"auto_social_publisher/failure"
)

const (
	tweetsPath   = "/2/tweets"
	feedPath     = "/me/feed"
	ugcPostsPath = "/v2/ugcPosts"
)

type twitter struct {
	cfg    config.TwitterConfig
	client *http.Client
}

func (t *twitter) Name() string     { return "twitter" }
func (t *twitter) TextPath() string { return "data.social_content.schema.post" }

func (t *twitter) Publish(ctx context.Context, post Post) (Result, error) {
	if t.cfg.BearerToken == "" {
		return Result{}, fmt.Errorf("%w: twitter bearer token missing; set TWITTER_BEARER_TOKEN", failure.ErrAuth)
	}
	return postJSON(ctx, t.client, t.Name(), endpoint(t.cfg.BaseURL, tweetsPath), t.cfg.BearerToken,
		map[string]string{"text": post.Text})
}

type facebook struct {
	cfg    config.FacebookConfig
	client *http.Client
}

func (f *facebook) Name() string     { return "facebook" }
func (f *facebook) TextPath() string { return "output.post" }

func (f *facebook) Publish(ctx context.Context, post Post) (Result, error) {
	if f.cfg.AccessToken == "" {
		return Result{}, fmt.Errorf("%w: facebook access token missing; set FACEBOOK_ACCESS_TOKEN", failure.ErrAuth)
	}
	form := url.Values{}
	form.Set("message", post.Text)
	form.Set("link", post.ImageURL)
	form.Set("access_token", f.cfg.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(f.cfg.BaseURL, feedPath), strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(f.client, f.Name(), req)
}

type linkedin struct {
	cfg    config.LinkedInConfig
	client *http.Client
}

type ugcThumbnail struct {
	ResolvedURL string `json:"resolvedUrl"`
}

type ugcEntity struct {
	EntityLocation string         `json:"entityLocation"`
	Thumbnails     []ugcThumbnail `json:"thumbnails"`
}

type ugcPost struct {
	Content struct {
		ContentEntities []ugcEntity `json:"contentEntities"`
	} `json:"content"`
	Owner string `json:"owner"`
	Text  struct {
		Text string `json:"text"`
	} `json:"text"`
}

func (l *linkedin) Name() string     { return "linkedin" }
func (l *linkedin) TextPath() string { return "data.social_content.schema.post" }

func (l *linkedin) Publish(ctx context.Context, post Post) (Result, error) {
	if l.cfg.AccessToken == "" {
		return Result{}, fmt.Errorf("%w: linkedin access token missing; set LINKEDIN_ACCESS_TOKEN", failure.ErrAuth)
	}
	if l.cfg.PersonURN == "" {
		return Result{}, fmt.Errorf("%w: linkedin person urn missing; set LINKEDIN_PERSON_URN", failure.ErrAuth)
	}
	var payload ugcPost
	payload.Owner = l.cfg.PersonURN
	payload.Text.Text = post.Text
	payload.Content.ContentEntities = []ugcEntity{{
		EntityLocation: post.ImageURL,
		Thumbnails:     []ugcThumbnail{{ResolvedURL: post.ImageURL}},
	}}
	return postJSON(ctx, l.client, l.Name(), endpoint(l.cfg.BaseURL, ugcPostsPath), l.cfg.AccessToken, payload)
}

// placeholder stands in for image-first platforms whose publishing flow
// (media container, then publish) is not built.
type placeholder struct {
	name     string
	textPath string
}

func (p placeholder) Name() string     { return p.name }
func (p placeholder) TextPath() string { return p.textPath }

func (p placeholder) Publish(context.Context, Post) (Result, error) {
	return Result{}, fmt.Errorf("%w: %s publishing", failure.ErrUnimplemented, p.name)
}

func endpoint(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
