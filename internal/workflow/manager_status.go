package workflow

import (
	"context"
	"time"

	"quotereel/internal/job"
)

// Get returns the job record for id.
func (m *Manager) Get(ctx context.Context, id string) (job.Job, error) {
	return m.store.Get(ctx, id)
}

// List returns up to limit jobs, most recently modified first. A
// non-positive limit uses the configured default.
func (m *Manager) List(ctx context.Context, limit int) ([]job.Job, error) {
	if limit <= 0 {
		limit = m.cfg.Server.DefaultListLimit
	}
	return m.store.List(ctx, limit)
}

// Watch polls job id every interval and emits the record whenever its status,
// stage or progress changes. The first snapshot is sent immediately and the
// channel closes after a terminal record or when ctx ends. A lookup error is
// returned on the error channel and ends the watch.
func (m *Manager) Watch(ctx context.Context, id string, interval time.Duration) (<-chan job.Job, <-chan error) {
	if interval <= 0 {
		interval = m.cfg.StreamPollInterval()
	}
	updates := make(chan job.Job)
	errs := make(chan error, 1)
	go func() {
		defer close(updates)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var last *job.Job
		for {
			record, err := m.store.Get(ctx, id)
			if err != nil {
				if ctx.Err() == nil {
					errs <- err
				}
				return
			}
			if last == nil || changed(*last, record) {
				select {
				case updates <- record:
				case <-ctx.Done():
					return
				}
				last = &record
			}
			if record.Status.IsTerminal() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return updates, errs
}

func changed(prev, next job.Job) bool {
	return prev.Status != next.Status || prev.Stage != next.Stage || prev.Progress != next.Progress
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running      bool
	ActiveJobs   int
	StoreBackend string
	LastError    string
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := StatusSummary{
		Running:      !m.stopped,
		ActiveJobs:   len(m.active),
		StoreBackend: m.store.Backend(),
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	return summary
}
