package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quotereel/internal/job"
	"quotereel/internal/services"
)

const maxErrorBody = 64 << 10

// Client talks to a running quotereel daemon.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// NewClient returns a client for the daemon at baseURL. A bare host:port is
// treated as http.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{baseURL: baseURL, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts a render request and returns the accepted job id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	var resp SubmitResponse
	body, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("encode submission: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/api/jobs", bytes.NewReader(body), &resp)
	return resp, err
}

// Get fetches one job record.
func (c *Client) Get(ctx context.Context, id string) (job.Job, error) {
	var record job.Job
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &record)
	return record, err
}

// List fetches recent job records. A limit of zero uses the daemon default.
func (c *Client) List(ctx context.Context, limit int) ([]job.Job, error) {
	path := "/api/jobs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp JobListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Videos lists the artifacts available for download.
func (c *Client) Videos(ctx context.Context) ([]Video, error) {
	var resp VideoListResponse
	if err := c.do(ctx, http.MethodGet, "/api/videos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Videos, nil
}

// Health fetches the daemon health summary.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &health)
	return health, err
}

// Follow streams status events for id, calling fn for each one, and returns
// the terminal record once a completed or failed event arrives.
func (c *Client) Follow(ctx context.Context, id string, fn func(event string, record job.Job)) (job.Job, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id)+"/events", nil)
	if err != nil {
		return job.Job{}, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return job.Job{}, fmt.Errorf("follow job: %w", err)
	}
	defer resp.Body.Close()
	if err := decodeError(resp); err != nil {
		return job.Job{}, err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				event = ""
				continue
			}
			var record job.Job
			if err := json.Unmarshal([]byte(data.String()), &record); err != nil {
				return job.Job{}, fmt.Errorf("decode %s event: %w", event, err)
			}
			if event == "" {
				event = EventStatus
			}
			if fn != nil {
				fn(event, record)
			}
			if event == EventCompleted || event == EventFailed {
				return record, nil
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return job.Job{}, fmt.Errorf("read event stream: %w", err)
	}
	return job.Job{}, errors.New("event stream closed before the job finished")
}

// Wait polls id every interval until the job is terminal.
func (c *Client) Wait(ctx context.Context, id string, interval time.Duration) (job.Job, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		record, err := c.Get(ctx, id)
		if err != nil {
			return job.Job{}, err
		}
		if record.Status.IsTerminal() {
			return record, nil
		}
		select {
		case <-ctx.Done():
			return record, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "api", "request", "daemon address is empty", nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if err := decodeError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// decodeError turns a non-2xx response into an error carrying the matching
// services marker.
func decodeError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload ErrorResponse
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if marker := markerFor(resp.StatusCode); marker != nil {
		return fmt.Errorf("%w: %s", marker, message)
	}
	return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, message)
}
