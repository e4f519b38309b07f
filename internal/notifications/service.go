package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quotereel/internal/config"
	"quotereel/internal/job"
)

const userAgent = "quotereel/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyJobCompleted(ctx context.Context, j job.Job) error
	NotifyJobFailed(ctx context.Context, j job.Job) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		jobCompleted: cfg.Notifications.JobCompleted,
		jobFailed:    cfg.Notifications.JobFailed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	jobCompleted bool
	jobFailed    bool
}

func jobTitle(j job.Job) string {
	if label := strings.TrimSpace(j.Label); label != "" {
		return label
	}
	return j.ID
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, j job.Job) error {
	if !n.jobCompleted {
		return nil
	}
	message := fmt.Sprintf("✅ Video ready: %s (%d scenes)", jobTitle(j), j.SceneCount)
	if j.Result != nil && j.Result.Filename != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, j.Result.Filename)
	}
	if j.StartedAt != nil && j.CompletedAt != nil {
		elapsed := j.CompletedAt.Sub(*j.StartedAt).Round(time.Second)
		message = fmt.Sprintf("%s\nRender time: %s", message, elapsed)
	}
	return n.send(ctx, payload{
		title:    "quotereel - Render Complete",
		message:  message,
		tags:     []string{"quotereel", "render", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, j job.Job) error {
	if !n.jobFailed {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Render failed: ")
	builder.WriteString(jobTitle(j))
	if j.Error != nil {
		if stage := strings.TrimSpace(j.Error.Stage); stage != "" {
			builder.WriteString(" during ")
			builder.WriteString(stage)
		}
		if msg := strings.TrimSpace(j.Error.Message); msg != "" {
			builder.WriteString("\n")
			builder.WriteString(msg)
		}
	}
	return n.send(ctx, payload{
		title:    "quotereel - Render Failed",
		message:  builder.String(),
		tags:     []string{"quotereel", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "quotereel - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"quotereel", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, job.Job) error { return nil }
func (noopService) NotifyJobFailed(context.Context, job.Job) error    { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
