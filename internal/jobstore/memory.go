package jobstore

import (
	"context"
	"sync"
	"time"

	"quotereel/internal/job"
)

// Memory keeps records in process memory.
type Memory struct {
	mu    sync.RWMutex
	jobs  map[string]job.Job
	clock Clock
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]job.Job), clock: time.Now}
}

func (m *Memory) Backend() string { return "memory" }

func (m *Memory) Create(_ context.Context, j job.Job) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[j.ID]; exists {
		return "", storageErr("create", j.ID, errCollision)
	}
	m.jobs[j.ID] = j
	return j.ID, nil
}

func (m *Memory) Update(_ context.Context, id string, patch job.Patch) (job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.jobs[id]
	if !ok {
		return job.Job{}, notFound(id)
	}
	next, err := applyPatch(current, patch, m.clock())
	if err != nil {
		return current, err
	}
	m.jobs[id] = next
	return next, nil
}

func (m *Memory) Get(_ context.Context, id string) (job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return job.Job{}, notFound(id)
	}
	return j, nil
}

func (m *Memory) List(_ context.Context, limit int) ([]job.Job, error) {
	m.mu.RLock()
	out := make([]job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	m.mu.RUnlock()
	sortRecent(out)
	return truncate(out, limit), nil
}

func (m *Memory) Close() error { return nil }
