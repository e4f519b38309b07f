// Package elevenlabs synthesizes narration audio with the ElevenLabs
// text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"quotereel/internal/fileutil"
	"quotereel/internal/scene"
	"quotereel/internal/services"
)

const (
	serviceName    = "elevenlabs"
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultTimeout = 2 * time.Minute
	maxAudioBytes  = 128 << 20
)

// Config captures voice and account settings.
type Config struct {
	APIKey       string
	BaseURL      string
	VoiceID      string
	Model        string
	Stability    float64
	Similarity   float64
	Style        float64
	SpeakerBoost bool
	Timeout      time.Duration
}

// Client wraps the text-to-speech endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
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

// New constructs an ElevenLabs client.
func New(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    services.NewBreaker(serviceName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize renders text as MP3 into dest. language is an IETF tag or
// "auto"; only its base language is sent.
func (c *Client) Synthesize(ctx context.Context, text, language, dest string) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, serviceName, "synthesize", "ELEVENLABS_API_KEY is not configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrValidation, serviceName, "synthesize", "narration is empty", nil)
	}
	payload := speechRequest{
		Text:    text,
		ModelID: c.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.Similarity,
			Style:           c.cfg.Style,
			UseSpeakerBoost: c.cfg.SpeakerBoost,
		},
	}
	if language != "" && language != scene.LanguageAuto {
		payload.LanguageCode = scene.BaseLanguage(language)
	}
	data, err := services.Guard(c.breaker, func() ([]byte, error) {
		return c.synthesize(ctx, payload)
	})
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(dest, data, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, serviceName, "save audio", dest, err)
	}
	return nil
}

func (c *Client) synthesize(ctx context.Context, payload speechRequest) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "encode request", "", err)
	}
	endpoint := c.cfg.BaseURL + "/v1/text-to-speech/" + url.PathEscape(c.cfg.VoiceID) + "?output_format=mp3_44100_128"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "synthesize", "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "synthesize", "", err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(serviceName, resp); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "synthesize", "voice "+c.cfg.VoiceID, err)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "synthesize", "read audio", err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "synthesize", "empty audio body", nil)
	}
	return data, nil
}
