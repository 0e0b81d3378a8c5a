// Package config loads the settings for one publishing run.
//
// Values come from three layers, later ones winning: an optional YAML file,
// a .env file in the working directory, and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every credential and endpoint a run may need.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Google    GoogleConfig    `yaml:"google"`
	Documents DocumentsConfig `yaml:"documents"`
	Image     ImageConfig     `yaml:"image"`
	Notify    NotifyConfig    `yaml:"notify"`
	Approval  ApprovalConfig  `yaml:"approval"`
	Platforms PlatformsConfig `yaml:"platforms"`

	// HTTPTimeout bounds every outbound request made with the shared client.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// LLMConfig selects the generative model backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, deepseek, gemini, mock
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// GoogleConfig points at the OAuth files shared by Docs and Gmail.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	DocsEndpoint    string `yaml:"docs_endpoint"`
	GmailEndpoint   string `yaml:"gmail_endpoint"`
}

type DocumentsConfig struct {
	SchemaDocID string `yaml:"schema_doc_id"`
	SystemDocID string `yaml:"system_doc_id"`
}

type ImageConfig struct {
	GeneratorURL string `yaml:"generator_url"`
	HostURL      string `yaml:"host_url"`
	HostAPIKey   string `yaml:"host_api_key"`
	Expiration   string `yaml:"expiration"`
}

// NotifyConfig picks where the approval preview goes.
type NotifyConfig struct {
	Channel string `yaml:"channel"` // email, telegram
	// EmailTo is the approval recipient. When unset it falls back to
	// TelegramChatID, which is how older setups were configured.
	EmailTo          string `yaml:"email_to"`
	TelegramToken    string `yaml:"telegram_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
	TelegramEndpoint string `yaml:"telegram_endpoint"`
}

type ApprovalConfig struct {
	Mode      string `yaml:"mode"` // console, stdin, http
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"public_url"`
	// GlamourStyle is the glamour standard style used by console mode.
	GlamourStyle string `yaml:"glamour_style"`
}

type PlatformsConfig struct {
	Twitter  TwitterConfig  `yaml:"twitter"`
	Facebook FacebookConfig `yaml:"facebook"`
	LinkedIn LinkedInConfig `yaml:"linkedin"`
}

type TwitterConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BaseURL     string `yaml:"base_url"`
}

type FacebookConfig struct {
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"`
}

type LinkedInConfig struct {
	AccessToken string `yaml:"access_token"`
	PersonURN   string `yaml:"person_urn"`
	BaseURL     string `yaml:"base_url"`
}

// Load reads path (if it exists), then .env, then the environment, and
// finally fills defaults. An empty path skips the YAML layer.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// .env is optional; a missing file is the common case in CI.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	switch c.LLM.Provider {
	case "", "openai":
		setFromEnv(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	switch c.LLM.Provider {
	case "":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.APIKey == "" {
			c.LLM.APIKey = key
			c.LLM.Provider = "gemini"
		}
	case "gemini":
		setFromEnv(&c.LLM.APIKey, "GEMINI_API_KEY")
	case "deepseek":
		setFromEnv(&c.LLM.APIKey, "DEEPSEEK_API_KEY")
	}
	setFromEnv(&c.Documents.SchemaDocID, "SCHEMA_DOC_ID")
	setFromEnv(&c.Documents.SystemDocID, "SYSTEM_DOC_ID")
	setFromEnv(&c.Image.HostAPIKey, "IMGBB_API_KEY")
	setFromEnv(&c.Notify.TelegramChatID, "TELEGRAM_CHAT_ID")
	setFromEnv(&c.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setFromEnv(&c.Notify.EmailTo, "APPROVAL_EMAIL")
	setFromEnv(&c.Platforms.Twitter.BearerToken, "TWITTER_BEARER_TOKEN")
	setFromEnv(&c.Platforms.Facebook.AccessToken, "FACEBOOK_ACCESS_TOKEN")
	setFromEnv(&c.Platforms.LinkedIn.AccessToken, "LINKEDIN_ACCESS_TOKEN")
	setFromEnv(&c.Platforms.LinkedIn.PersonURN, "LINKEDIN_PERSON_URN")
}

// GMAIL_ADDRESS is the sending account; Gmail sends as "me" regardless, so it
// is only used as the recipient of last resort.
func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.Model = "gemini-2.0-flash"
		case "deepseek":
			c.LLM.Model = "deepseek-chat"
		default:
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = "credentials.json"
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = "token.json"
	}
	if c.Image.GeneratorURL == "" {
		c.Image.GeneratorURL = "https://image.pollinations.ai/prompt/"
	}
	if c.Image.HostURL == "" {
		c.Image.HostURL = "https://api.imgbb.com/1/upload"
	}
	if c.Image.Expiration == "" {
		c.Image.Expiration = "0"
	}
	if c.Notify.Channel == "" {
		c.Notify.Channel = "email"
	}
	if c.Notify.EmailTo == "" && c.Notify.TelegramChatID == "" {
		c.Notify.EmailTo = os.Getenv("GMAIL_ADDRESS")
	}
	if c.Approval.Mode == "" {
		c.Approval.Mode = "console"
	}
	if c.Approval.Addr == "" {
		c.Approval.Addr = "127.0.0.1:8080"
	}
	if c.Approval.PublicURL == "" {
		c.Approval.PublicURL = "http://" + c.Approval.Addr
	}
	c.Approval.PublicURL = strings.TrimRight(c.Approval.PublicURL, "/")
	if c.Approval.GlamourStyle == "" {
		c.Approval.GlamourStyle = "dark"
	}
	if c.Platforms.Twitter.BaseURL == "" {
		c.Platforms.Twitter.BaseURL = "https://api.twitter.com"
	}
	if c.Platforms.Facebook.BaseURL == "" {
		c.Platforms.Facebook.BaseURL = "https://graph.facebook.com"
	}
	if c.Platforms.LinkedIn.BaseURL == "" {
		c.Platforms.LinkedIn.BaseURL = "https://api.linkedin.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 60 * time.Second
	}
}

// Validate checks the settings the selected providers cannot run without.
// Platform tokens are checked by the publisher, only for the chosen route.
func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "openai", "gemini":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm provider %s requires an api key", c.LLM.Provider))
		}
	case "deepseek":
		if c.LLM.APIKey == "" || c.LLM.BaseURL == "" {
			errs = append(errs, errors.New("llm provider deepseek requires an api key and base_url"))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("llm provider %s not supported", c.LLM.Provider))
	}
	if c.Image.HostAPIKey == "" {
		errs = append(errs, errors.New("image host api key missing; set IMGBB_API_KEY"))
	}
	switch c.Notify.Channel {
	case "email":
		if c.Notify.EmailTo == "" && c.Notify.TelegramChatID == "" {
			errs = append(errs, errors.New("email notification requires APPROVAL_EMAIL"))
		}
	case "telegram":
		if c.Notify.TelegramToken == "" || c.Notify.TelegramChatID == "" {
			errs = append(errs, errors.New("telegram notification requires TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID"))
		}
	default:
		errs = append(errs, fmt.Errorf("notify channel %s not supported", c.Notify.Channel))
	}
	switch c.Approval.Mode {
	case "console", "stdin", "http":
	default:
		errs = append(errs, fmt.Errorf("approval mode %s not supported", c.Approval.Mode))
	}
	return errors.Join(errs...)
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
