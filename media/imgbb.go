package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"auto_social_publisher/failure"
)

// ImgBB uploads images to imgbb and returns their public URL.
type ImgBB struct {
	endpoint   string
	apiKey     string
	expiration string
	client     *http.Client
	logger     *zap.Logger
}

// NewImgBB builds an uploader. expiration is sent verbatim; "0" asks for no expiry.
func NewImgBB(endpoint, apiKey, expiration string, client *http.Client, logger *zap.Logger) (*ImgBB, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: imgbb api key missing; set IMGBB_API_KEY", failure.ErrAuth)
	}
	if endpoint == "" {
		return nil, errors.New("imgbb endpoint is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImgBB{
		endpoint:   endpoint,
		apiKey:     apiKey,
		expiration: expiration,
		client:     client,
		logger:     logger.Named("imgbb"),
	}, nil
}

// Upload posts data as multipart form field "image" and returns data.url.
func (u *ImgBB) Upload(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "image.jpg")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return "", err
	}
	if err := writer.WriteField("key", u.apiKey); err != nil {
		return "", err
	}
	if u.expiration != "" {
		if err := writer.WriteField("expiration", u.expiration); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: imgbb: %w", failure.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: imgbb: read body: %w", failure.ErrTransport, err)
	}
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("%w: imgbb: status %d with non-json body", failure.ErrUpstreamShape, resp.StatusCode)
	}
	hosted := gjson.GetBytes(raw, "data.url")
	if hosted.Type != gjson.String || hosted.Str == "" {
		if msg := gjson.GetBytes(raw, "error.message").String(); msg != "" {
			return "", fmt.Errorf("%w: imgbb: status %d: %s", failure.ErrUpstreamShape, resp.StatusCode, msg)
		}
		return "", fmt.Errorf("%w: imgbb: response has no data.url (status %d)", failure.ErrUpstreamShape, resp.StatusCode)
	}
	u.logger.Info("image hosted", zap.String("url", hosted.Str))
	return hosted.Str, nil
}
