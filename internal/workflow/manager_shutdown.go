package workflow

import (
	"context"

	"quotereel/internal/logging"
	"quotereel/internal/services"
)

// Stop rejects new submissions, cancels running jobs and waits for them to
// record their failure.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// RecoverInterrupted fails every non-terminal job that no goroutine of this
// manager owns. It is run at daemon start so records left behind by a crash
// do not stay processing forever.
func (m *Manager) RecoverInterrupted(ctx context.Context) (int, error) {
	jobs, err := m.store.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, record := range jobs {
		if record.Status.IsTerminal() || m.isActive(record.ID) {
			continue
		}
		jobCtx := services.WithJobID(ctx, record.ID)
		m.fail(jobCtx, record.ID, record.Stage, errDaemonStopped)
		recovered++
	}
	if recovered > 0 {
		logging.WarnWithContext(m.logger, "failed interrupted jobs", "jobs_recovered",
			logging.Int("count", recovered),
			logging.String(logging.FieldErrorHint, "resubmit the affected jobs"),
		)
	}
	return recovered, nil
}

func (m *Manager) isActive(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[id]
	return ok
}

// Wait blocks until every running job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

