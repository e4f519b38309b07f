// Package deepl translates Korean image prompts to English with the DeepL
// API. Image models follow English prompts far better than Korean ones.
package deepl

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/sony/gobreaker"

	"quotereel/internal/logging"
	"quotereel/internal/services"
)

const (
	serviceName    = "deepl"
	defaultAPIURL  = "https://api-free.deepl.com/v2/translate"
	defaultTimeout = 10 * time.Second
	sourceLang     = "KO"
	targetLang     = "EN-US"
)

// Config captures account settings.
type Config struct {
	APIKey  string
	APIURL  string
	Timeout time.Duration
}

// Client translates prompts.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, serviceName)
		}
	}
}

// New constructs a DeepL client.
func New(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    services.NewBreaker(serviceName),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.APIKey != ""
}

// ContainsHangul reports whether text has any precomposed Hangul syllable.
func ContainsHangul(text string) bool {
	for _, r := range text {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return true
		}
	}
	return false
}

// Translate returns text in English when it contains Hangul. Text without
// Hangul, a disabled client, and any translation failure all return the input
// unchanged; failures are logged.
func (c *Client) Translate(ctx context.Context, text string) string {
	if !c.Enabled() || !ContainsHangul(text) {
		return text
	}
	translated, err := services.Guard(c.breaker, func() (string, error) {
		return c.translate(ctx, text)
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "prompt translation failed; using original prompt", "translation_fallback",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check deepl api_key and quota"),
		)
		return text
	}
	return translated
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (c *Client) translate(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", targetLang)
	form.Set("source_lang", sourceLang)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "translate", "", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "translate", "", err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(serviceName, resp); err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "translate", "", err)
	}
	var parsed translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "translate", "decode response", err)
	}
	if len(parsed.Translations) == 0 || strings.TrimSpace(parsed.Translations[0].Text) == "" {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "translate", "response has no translation", nil)
	}
	return strings.TrimFunc(parsed.Translations[0].Text, unicode.IsSpace), nil
}
