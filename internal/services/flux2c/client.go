// Package flux2c calls a flux2c-api server, a single-request FLUX image
// endpoint that returns the rendered image in the response.
package flux2c

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"quotereel/internal/fileutil"
	"quotereel/internal/services"
)

const (
	serviceName    = "flux2c"
	defaultTimeout = 10 * time.Minute
	defaultSteps   = 4
	maxImageBytes  = 64 << 20
)

// Config captures the runtime settings for a flux2c-api server.
type Config struct {
	BaseURL string
	Steps   int
	Seed    int64
	Timeout time.Duration
}

// Client generates images through flux2c-api.
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

// New constructs a flux2c client.
func New(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Steps <= 0 {
		cfg.Steps = defaultSteps
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

type generateRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"steps"`
	Seed   *int64 `json:"seed,omitempty"`
}

type generateResponse struct {
	Image string `json:"image"`
	Error string `json:"error"`
}

// Generate renders prompt at width x height and writes the image to dest.
func (c *Client) Generate(ctx context.Context, prompt string, width, height int, dest string) error {
	if c.cfg.BaseURL == "" {
		return services.Wrap(services.ErrConfiguration, serviceName, "generate", "flux2c url is not configured", nil)
	}
	payload := generateRequest{Prompt: prompt, Width: width, Height: height, Steps: c.cfg.Steps}
	if c.cfg.Seed >= 0 {
		seed := c.cfg.Seed
		payload.Seed = &seed
	}
	data, err := services.Guard(c.breaker, func() ([]byte, error) {
		return c.generate(ctx, payload)
	})
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(dest, data, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, serviceName, "save image", dest, err)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, payload generateRequest) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "encode request", "", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "generate", "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			return nil, services.Wrap(services.ErrTimeout, serviceName, "generate", "no response within "+c.cfg.Timeout.String(), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "generate", "", err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(serviceName, resp); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "generate", "", err)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "generate", "read response", err)
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "image/") {
		if len(raw) == 0 {
			return nil, services.Wrap(services.ErrExternalTool, serviceName, "generate", "empty image body", nil)
		}
		return raw, nil
	}
	return decodeJSONImage(raw)
}

func decodeJSONImage(raw []byte) ([]byte, error) {
	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "generate", "decode response", err)
	}
	if parsed.Error != "" {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "generate", parsed.Error, nil)
	}
	encoded := parsed.Image
	if idx := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && idx >= 0 {
		encoded = encoded[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "generate", "response carries no image", err)
	}
	return data, nil
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
