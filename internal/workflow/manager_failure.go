package workflow

import (
	"context"
	"errors"

	"quotereel/internal/job"
	"quotereel/internal/logging"
	"quotereel/internal/services"
)

// fail records err as the terminal state of job id. Cancellation caused by
// Stop is recorded as a daemon stop rather than a stage failure.
func (m *Manager) fail(ctx context.Context, id, stage string, err error) {
	details := m.classify(stage, err)
	logger := logging.WithContext(ctx, m.logger)
	m.setLastError(err)

	completed := m.now()
	record, updateErr := m.update(ctx, id, job.Patch{
		Status:      job.Ptr(job.StatusFailed),
		Stage:       job.Ptr(job.StageFailed),
		Error:       &details,
		CompletedAt: &completed,
	})

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String("failed_stage", details.Stage),
		logging.String("error_kind", details.Kind),
		logging.String("error_message", details.Message),
		logging.String(logging.FieldErrorHint, hintFor(details.Kind)),
		logging.Error(err),
	}
	logging.ErrorWithContext(logger, "job failed", "job_failed", attrs...)

	if updateErr != nil {
		logging.ErrorWithContext(logger, "failed to persist job failure", "job_fail_persist_failed",
			logging.Error(updateErr),
			logging.String(logging.FieldErrorHint, "check job store access"),
		)
		return
	}
	m.notifyFailed(ctx, record)
}

func (m *Manager) classify(stage string, err error) services.ErrorDetails {
	if errors.Is(err, errDaemonStopped) || (errors.Is(err, context.Canceled) && m.isStopped()) {
		return services.ErrorDetails{
			Kind:    services.KindStage,
			Stage:   stage,
			Message: job.DaemonStopReason,
			Detail:  err.Error(),
		}
	}
	return services.Details(stage, err)
}

func hintFor(kind string) string {
	switch kind {
	case services.KindConfig:
		return "check the submitted options, fonts and config.toml"
	case services.KindTimeout:
		return "check the image backend is running and raise image.timeout_seconds if needed"
	case services.KindStorage:
		return "check job store access"
	case services.KindNotFound:
		return "check the referenced file exists"
	default:
		return "check the failed stage's service and ffmpeg output in the error detail"
	}
}

func (m *Manager) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
