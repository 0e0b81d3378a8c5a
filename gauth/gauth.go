// Package gauth hands out an authorized HTTP client for the Google APIs used
// by a run. Tokens are cached in a file next to the OAuth client secret and
// refreshed through golang.org/x/oauth2; when no usable token exists the user
// is sent through the browser consent flow.
package gauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdocs "google.golang.org/api/docs/v1"
	"google.golang.org/api/gmail/v1"

	"auto_social_publisher/failure"
)

// Scopes covers reading the brief documents and sending the approval mail.
var Scopes = []string{gdocs.DocumentsReadonlyScope, gmail.GmailSendScope}

// CredentialSource yields an HTTP client that authenticates Google API calls.
type CredentialSource interface {
	Client(ctx context.Context) (*http.Client, error)
}

// ConsentFunc obtains a new token interactively.
type ConsentFunc func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)

// FileCredentials reads the client secret from SecretPath and keeps the user
// token in TokenPath. The token file is rewritten without locking, so two
// runs sharing it can race.
type FileCredentials struct {
	SecretPath string
	TokenPath  string
	Scopes     []string
	// Consent defaults to LoopbackConsent(os.Stderr).
	Consent ConsentFunc
	// HTTPClient, if set, is used for token exchange and refresh.
	HTTPClient *http.Client

	logger *zap.Logger

	mu     sync.Mutex
	client *http.Client
}

func NewFileCredentials(secretPath, tokenPath string, logger *zap.Logger) *FileCredentials {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCredentials{
		SecretPath: secretPath,
		TokenPath:  tokenPath,
		Scopes:     Scopes,
		logger:     logger.Named("gauth"),
	}
}

// Client returns the cached client or builds one: stored token, refreshed
// token, or consent, in that order.
func (f *FileCredentials) Client(ctx context.Context) (*http.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		return f.client, nil
	}

	cfg, err := f.oauthConfig()
	if err != nil {
		return nil, err
	}
	// the client outlives this call, so it must not inherit its cancellation
	base := context.WithoutCancel(ctx)
	if f.HTTPClient != nil {
		base = context.WithValue(base, oauth2.HTTPClient, f.HTTPClient)
	}

	stored, err := loadToken(f.TokenPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		f.logger.Warn("ignoring unreadable token file", zap.String("path", f.TokenPath), zap.Error(err))
	}

	var tok *oauth2.Token
	if stored != nil {
		tok, err = cfg.TokenSource(base, stored).Token()
		if err != nil {
			f.logger.Info("stored token unusable, asking for consent", zap.Error(err))
			tok = nil
		}
	}
	if tok == nil {
		consent := f.Consent
		if consent == nil {
			consent = LoopbackConsent(os.Stderr)
		}
		tok, err = consent(context.WithValue(ctx, oauth2.HTTPClient, f.httpClient()), cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: google consent: %w", failure.ErrAuth, err)
		}
	}

	if stored == nil || stored.AccessToken != tok.AccessToken {
		if err := saveToken(f.TokenPath, tok); err != nil {
			return nil, fmt.Errorf("gauth: save token: %w", err)
		}
		f.logger.Debug("token file updated", zap.String("path", f.TokenPath))
	}

	f.client = oauth2.NewClient(base, cfg.TokenSource(base, tok))
	return f.client, nil
}

// Authorize runs the consent flow even when a stored token exists and
// writes the new token file.
func (f *FileCredentials) Authorize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := f.oauthConfig()
	if err != nil {
		return err
	}
	consent := f.Consent
	if consent == nil {
		consent = LoopbackConsent(os.Stderr)
	}
	tok, err := consent(context.WithValue(ctx, oauth2.HTTPClient, f.httpClient()), cfg)
	if err != nil {
		return fmt.Errorf("%w: google consent: %w", failure.ErrAuth, err)
	}
	if err := saveToken(f.TokenPath, tok); err != nil {
		return fmt.Errorf("gauth: save token: %w", err)
	}
	f.client = nil
	f.logger.Info("token saved", zap.String("path", f.TokenPath))
	return nil
}

// oauthConfig parses the installed-app client secret.
func (f *FileCredentials) oauthConfig() (*oauth2.Config, error) {
	secret, err := os.ReadFile(f.SecretPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read client secret: %w", failure.ErrAuth, err)
	}
	scopes := f.Scopes
	if len(scopes) == 0 {
		scopes = Scopes
	}
	cfg, err := google.ConfigFromJSON(secret, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse client secret: %w", failure.ErrAuth, err)
	}
	return cfg, nil
}

func (f *FileCredentials) httpClient() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return http.DefaultClient
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("token file holds no token")
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
