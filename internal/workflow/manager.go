package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quotereel/internal/assembly"
	"quotereel/internal/config"
	"quotereel/internal/jobstore"
	"quotereel/internal/logging"
	"quotereel/internal/notifications"
	"quotereel/internal/pipeline"
)

// SceneProcessor renders one scene clip.
type SceneProcessor interface {
	Process(ctx context.Context, req pipeline.Request, progress chan<- pipeline.Event) (string, error)
}

// Assembler joins scene clips into the final artifact.
type Assembler interface {
	Assemble(ctx context.Context, asm assembly.Assembly) (string, error)
}

// ImageSelector picks the image generator for a job.
type ImageSelector interface {
	For(backend, flux2cURL string) (pipeline.ImageGenerator, error)
}

// Prober measures the final artifact.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Dependencies bundles the collaborators the Manager orchestrates.
type Dependencies struct {
	Scenes    SceneProcessor
	Assembler Assembler
	Images    ImageSelector
	Notifier  notifications.Service
	// Prober is optional; without it results carry no duration.
	Prober Prober
}

// Manager coordinates render jobs.
type Manager struct {
	cfg    *config.Config
	store  jobstore.Store
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	active  map[string]struct{}
	stopped bool
	lastErr error
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the time source used for job timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store jobstore.Store, deps Dependencies, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:     cfg,
		store:   store,
		deps:    deps,
		logger:  logging.NewComponentLogger(logger, "workflow"),
		now:     time.Now,
		baseCtx: ctx,
		cancel:  cancel,
		active:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
