package comfyui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"quotereel/internal/fileutil"
	"quotereel/internal/services"
)

const (
	serviceName         = "comfyui"
	defaultTimeout      = 10 * time.Minute
	defaultPollInterval = 2 * time.Second
	defaultSteps        = 4
	requestTimeout      = 30 * time.Second
)

// Config captures the runtime settings for a ComfyUI server.
type Config struct {
	BaseURL string
	Steps   int
	// Seed is used as-is when non-negative; negative derives one per request.
	Seed         int64
	Timeout      time.Duration
	PollInterval time.Duration
}

// Client generates images through ComfyUI.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	clientID   string
	now        func() time.Time
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

// WithClock overrides the time source used for derived seeds.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a ComfyUI client.
func New(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Steps <= 0 {
		cfg.Steps = defaultSteps
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		breaker:    services.NewBreaker(serviceName),
		clientID:   uuid.NewString(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type queueRequest struct {
	Prompt   map[string]node `json:"prompt"`
	ClientID string          `json:"client_id"`
}

type queueResponse struct {
	PromptID string `json:"prompt_id"`
}

type historyEntry struct {
	Status struct {
		StatusStr string            `json:"status_str"`
		Messages  []json.RawMessage `json:"messages"`
	} `json:"status"`
	Outputs map[string]struct {
		Images []imageRef `json:"images"`
	} `json:"outputs"`
}

type imageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// Generate renders prompt at width x height and writes the image to dest.
func (c *Client) Generate(ctx context.Context, prompt string, width, height int, dest string) error {
	if c.cfg.BaseURL == "" {
		return services.Wrap(services.ErrConfiguration, serviceName, "generate", "comfyui_url is not configured", nil)
	}
	seed := c.cfg.Seed
	if seed < 0 {
		seed = c.now().UnixMilli() % (1 << 32)
	}
	graph := buildWorkflow(workflowParams{Prompt: prompt, Width: width, Height: height, Steps: c.cfg.Steps, Seed: seed})

	promptID, err := services.Guard(c.breaker, func() (string, error) {
		return c.queue(ctx, graph)
	})
	if err != nil {
		return err
	}
	ref, err := c.wait(ctx, promptID)
	if err != nil {
		return err
	}
	data, err := services.Guard(c.breaker, func() ([]byte, error) {
		return c.download(ctx, ref)
	})
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(dest, data, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, serviceName, "save image", dest, err)
	}
	return nil
}

func (c *Client) queue(ctx context.Context, graph map[string]node) (string, error) {
	body, err := json.Marshal(queueRequest{Prompt: graph, ClientID: c.clientID})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "encode workflow", "", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "queue prompt", "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "queue prompt", "", err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(serviceName, resp); err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "queue prompt", "", err)
	}
	var parsed queueResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "queue prompt", "decode response", err)
	}
	if strings.TrimSpace(parsed.PromptID) == "" {
		return "", services.Wrap(services.ErrExternalTool, serviceName, "queue prompt", "response has no prompt_id", nil)
	}
	return parsed.PromptID, nil
}

// wait polls history until the SaveImage node reports an image, the server
// reports an error, or the configured timeout elapses.
func (c *Client) wait(ctx context.Context, promptID string) (imageRef, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		ref, done, err := c.poll(waitCtx, promptID)
		if err != nil && waitCtx.Err() == nil {
			return imageRef{}, err
		}
		if done {
			return ref, nil
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return imageRef{}, ctx.Err()
			}
			return imageRef{}, services.Wrap(services.ErrTimeout, serviceName, "wait for image",
				fmt.Sprintf("prompt %s not finished after %s", promptID, c.cfg.Timeout), nil)
		case <-ticker.C:
		}
	}
}

func (c *Client) poll(ctx context.Context, promptID string) (imageRef, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/history/"+url.PathEscape(promptID), nil)
	if err != nil {
		return imageRef{}, false, services.Wrap(services.ErrExternalTool, serviceName, "poll history", "", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return imageRef{}, false, services.Wrap(services.ErrExternalTool, serviceName, "poll history", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// history is eventually consistent; keep polling
		_, _ = io.Copy(io.Discard, resp.Body)
		return imageRef{}, false, nil
	}
	var history map[string]historyEntry
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return imageRef{}, false, services.Wrap(services.ErrExternalTool, serviceName, "poll history", "decode response", err)
	}
	entry, ok := history[promptID]
	if !ok {
		return imageRef{}, false, nil
	}
	if entry.Status.StatusStr == "error" {
		detail := "image generation failed"
		if len(entry.Status.Messages) > 0 {
			detail += ": " + string(entry.Status.Messages[len(entry.Status.Messages)-1])
		}
		return imageRef{}, false, services.Wrap(services.ErrExternalTool, serviceName, "generate", detail, nil)
	}
	output, ok := entry.Outputs[nodeSaveImage]
	if !ok || len(output.Images) == 0 {
		return imageRef{}, false, nil
	}
	return output.Images[0], true, nil
}

func (c *Client) download(ctx context.Context, ref imageRef) ([]byte, error) {
	query := url.Values{}
	query.Set("filename", ref.Filename)
	query.Set("subfolder", ref.Subfolder)
	query.Set("type", "output")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/view?"+query.Encode(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "download image", "", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "download image", "", err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(serviceName, resp); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "download image", ref.Filename, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "download image", ref.Filename, err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, serviceName, "download image", "empty image body", nil)
	}
	return data, nil
}

