package workflow

import (
	"context"
	"errors"

	"quotereel/internal/job"
	"quotereel/internal/logging"
)

func (m *Manager) notifyCompleted(ctx context.Context, record job.Job) {
	m.notify(ctx, "completion", func(ctx context.Context) error {
		return m.deps.Notifier.NotifyJobCompleted(ctx, record)
	})
}

func (m *Manager) notifyFailed(ctx context.Context, record job.Job) {
	m.notify(ctx, "failure", func(ctx context.Context) error {
		return m.deps.Notifier.NotifyJobFailed(ctx, record)
	})
}

// notify sends best-effort; notification failures never affect the job.
func (m *Manager) notify(ctx context.Context, kind string, send func(context.Context) error) {
	if m.deps.Notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := send(ctx); err != nil {
		logger := logging.WithContext(ctx, m.logger)
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send notification")
			return
		}
		logger.Debug("job notification failed",
			logging.String("notification", kind),
			logging.Error(err),
		)
	}
}
