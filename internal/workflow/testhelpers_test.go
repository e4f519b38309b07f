package workflow

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"quotereel/internal/assembly"
	"quotereel/internal/config"
	"quotereel/internal/job"
	"quotereel/internal/jobstore"
	"quotereel/internal/logging"
	"quotereel/internal/pipeline"
	"quotereel/internal/testsupport"
)

// recordingStore captures every persisted job state.
type recordingStore struct {
	jobstore.Store
	mu      sync.Mutex
	history map[string][]job.Job
}

func (r *recordingStore) Create(ctx context.Context, j job.Job) (string, error) {
	id, err := r.Store.Create(ctx, j)
	if err == nil {
		r.record(j)
	}
	return id, err
}

func (r *recordingStore) Update(ctx context.Context, id string, patch job.Patch) (job.Job, error) {
	j, err := r.Store.Update(ctx, id, patch)
	if err == nil {
		r.record(j)
	}
	return j, err
}

func (r *recordingStore) record(j job.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[j.ID] = append(r.history[j.ID], j)
}

func (r *recordingStore) states(id string) []job.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]job.Job(nil), r.history[id]...)
}

// blockingImages blocks until ctx ends, signalling once it has started.
type blockingImages struct {
	started chan struct{}
	once    sync.Once
}

func (b *blockingImages) Generate(ctx context.Context, _ string, _, _ int, _ string) error {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return ctx.Err()
}

// gatedImages holds prompts containing hold until release is closed and
// renders every other prompt immediately.
type gatedImages struct {
	testsupport.FakeImages
	hold    string
	held    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedImages(hold string) *gatedImages {
	return &gatedImages{hold: hold, held: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedImages) Generate(ctx context.Context, prompt string, width, height int, dest string) error {
	if strings.Contains(prompt, g.hold) {
		g.once.Do(func() { close(g.held) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g.FakeImages.Generate(ctx, prompt, width, height, dest)
}

type testEnv struct {
	cfg         *config.Config
	manager     *Manager
	store       *recordingStore
	images      *testsupport.FakeImages
	transcriber *testsupport.FakeTranscriber
	encoder     *testsupport.FakeEncoder
}

func newTestEnv(t *testing.T, images pipeline.ImageGenerator) *testEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithDefaultFonts())
	env := &testEnv{
		cfg:         cfg,
		store:       &recordingStore{Store: testsupport.MustOpenStore(t, cfg), history: map[string][]job.Job{}},
		images:      &testsupport.FakeImages{},
		transcriber: &testsupport.FakeTranscriber{},
		encoder:     &testsupport.FakeEncoder{},
	}
	if images == nil {
		images = env.images
	}
	logger := logging.NewNop()
	scenes := pipeline.New(pipeline.Dependencies{
		Synthesizer: &testsupport.FakeSynthesizer{},
		Transcriber: env.transcriber,
		Renderer:    env.encoder,
		Prober:      testsupport.FakeProber{Seconds: 2.5},
		FontDir:     cfg.Paths.FontDir,
		StylePrompt: cfg.Image.StylePrompt,
	}, logger)
	env.manager = NewManager(cfg, env.store, Dependencies{
		Scenes:    scenes,
		Assembler: assembly.New(env.encoder, logger),
		Images:    pipeline.Backends{ComfyUI: images, Flux2C: images},
		Prober:    testsupport.FakeProber{Seconds: 5},
	}, logger)
	t.Cleanup(env.manager.Stop)
	return env
}

func (e *testEnv) waitTerminal(t *testing.T, id string) job.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		record, err := e.manager.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if record.Status.IsTerminal() {
			e.manager.Wait()
			return record
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return job.Job{}
}

// waitStatus polls until id reaches status without waiting on other jobs.
func (e *testEnv) waitStatus(t *testing.T, id string, status job.Status) job.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		record, err := e.manager.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if record.Status == status {
			return record
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach %s", id, status)
	return job.Job{}
}
