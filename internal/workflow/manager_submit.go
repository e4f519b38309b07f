package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"quotereel/internal/artifacts"
	"quotereel/internal/job"
	"quotereel/internal/logging"
	"quotereel/internal/scene"
	"quotereel/internal/services"
)

// Submission is a render request as received from a client.
type Submission struct {
	Scenes  []scene.Scene    `json:"scenes" yaml:"scenes"`
	Options scene.JobOptions `json:"options" yaml:"options"`
}

// Plan is a validated submission with every scene's RenderConfig resolved.
type Plan struct {
	Scenes  []scene.Scene
	Configs []scene.RenderConfig
	Options scene.JobOptions
	// BGM is the absolute background music path, empty for none.
	BGM       string
	BGMVolume float64
}

// Prepare validates sub and resolves it into a Plan. Every failure is a
// configuration error reported before any job exists.
func (m *Manager) Prepare(sub Submission) (Plan, error) {
	if err := scene.ValidateScenes(sub.Scenes); err != nil {
		return Plan{}, err
	}
	if err := scene.ValidateJobOptions(sub.Options); err != nil {
		return Plan{}, err
	}
	defaults := m.cfg.RenderDefaults()
	plan := Plan{
		Scenes:    sub.Scenes,
		Configs:   make([]scene.RenderConfig, len(sub.Scenes)),
		Options:   sub.Options,
		BGMVolume: m.cfg.Render.BGMVolume,
	}
	for i, sc := range sub.Scenes {
		cfg := scene.Resolve(sc, sub.Options, defaults)
		if err := scene.ValidateRenderConfig(cfg); err != nil {
			return Plan{}, services.Wrap(services.ErrConfiguration, "submit", fmt.Sprintf("scene %d", i+1), "", err)
		}
		plan.Configs[i] = cfg
	}
	if _, err := m.deps.Images.For(plan.Configs[0].ImageBackend, sub.Options.Flux2CURL); err != nil {
		return Plan{}, err
	}
	if sub.Options.BGMVolume != nil {
		plan.BGMVolume = *sub.Options.BGMVolume
	}
	if name := strings.TrimSpace(sub.Options.BackgroundMusic); name != "" {
		path, err := m.resolveBGM(name)
		if err != nil {
			return Plan{}, err
		}
		plan.BGM = path
	}
	return plan, nil
}

func (m *Manager) resolveBGM(name string) (string, error) {
	if filepath.Base(name) != name || name == "." || name == ".." {
		return "", services.Wrap(services.ErrConfiguration, "submit", "background music", "invalid file name "+name, nil)
	}
	path := filepath.Join(m.cfg.Paths.BGMDir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrConfiguration, "submit", "background music", "not found: "+name, nil)
		}
		return "", services.Wrap(services.ErrConfiguration, "submit", "background music", name, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrConfiguration, "submit", "background music", "not a file: "+name, nil)
	}
	return path, nil
}

// CreateJob records a new pending job and returns it.
func (m *Manager) CreateJob(ctx context.Context, sceneCount int, label string) (job.Job, error) {
	now := m.now()
	outputName, err := artifacts.OutputName(label, now)
	if err != nil {
		return job.Job{}, services.Wrap(services.ErrStorage, "submit", "output name", "", err)
	}
	record := job.New(uuid.NewString(), sceneCount, strings.TrimSpace(label), outputName, now)
	id, err := m.store.Create(ctx, record)
	if err != nil {
		return job.Job{}, err
	}
	record.ID = id
	return record, nil
}

// Submit validates sub, creates its job, and starts rendering in the
// background. It returns as soon as the job record exists.
func (m *Manager) Submit(ctx context.Context, sub Submission) (job.Job, error) {
	plan, err := m.Prepare(sub)
	if err != nil {
		return job.Job{}, err
	}
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return job.Job{}, services.Wrap(services.ErrConfiguration, "submit", "start", "manager is stopped", nil)
	}
	record, err := m.CreateJob(ctx, len(plan.Scenes), sub.Options.Label)
	if err != nil {
		return job.Job{}, err
	}
	if !m.start(record, plan) {
		m.fail(services.WithJobID(context.Background(), record.ID), record.ID, job.StageQueued, errDaemonStopped)
		return job.Job{}, services.Wrap(services.ErrConfiguration, "submit", "start", "manager is stopped", nil)
	}
	logging.WithContext(services.WithJobID(ctx, record.ID), m.logger).Info("job submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.Int("scenes", record.SceneCount),
		logging.String("output_name", record.OutputName),
		logging.String("image_backend", plan.Configs[0].ImageBackend),
	)
	return record, nil
}

// start launches the job goroutine unless the manager is stopping.
func (m *Manager) start(record job.Job, plan Plan) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	m.active[record.ID] = struct{}{}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.finish(record.ID)
		_ = m.Run(m.baseCtx, record.ID, plan)
	}()
	return true
}

func (m *Manager) finish(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}
