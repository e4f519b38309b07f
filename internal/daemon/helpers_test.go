package daemon

import (
	"net/http/httptest"
	"testing"

	"quotereel/internal/api"
	"quotereel/internal/assembly"
	"quotereel/internal/config"
	"quotereel/internal/jobstore"
	"quotereel/internal/logging"
	"quotereel/internal/pipeline"
	"quotereel/internal/testsupport"
	"quotereel/internal/workflow"
)

type testDaemon struct {
	cfg     *config.Config
	store   jobstore.Store
	daemon  *Daemon
	encoder *testsupport.FakeEncoder
}

func newTestDaemon(t *testing.T, configure func(*config.Config)) *testDaemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithDefaultFonts())
	if configure != nil {
		configure(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	encoder := &testsupport.FakeEncoder{}
	images := &testsupport.FakeImages{}
	logger := logging.NewNop()

	scenes := pipeline.New(pipeline.Dependencies{
		Synthesizer: &testsupport.FakeSynthesizer{},
		Transcriber: &testsupport.FakeTranscriber{},
		Renderer:    encoder,
		Prober:      testsupport.FakeProber{},
		FontDir:     cfg.Paths.FontDir,
		StylePrompt: cfg.Image.StylePrompt,
	}, logger)
	manager := workflow.NewManager(cfg, store, workflow.Dependencies{
		Scenes:    scenes,
		Assembler: assembly.New(encoder, logger),
		Images:    pipeline.Backends{ComfyUI: images, Flux2C: images},
		Prober:    testsupport.FakeProber{Seconds: 7},
	}, logger)

	d, err := New(cfg, store, manager, logger)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		manager.Stop()
	})
	return &testDaemon{cfg: cfg, store: store, daemon: d, encoder: encoder}
}

// serve exposes the daemon handler on an httptest server.
func (td *testDaemon) serve(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(td.daemon.server.handler)
	t.Cleanup(srv.Close)
	return srv
}

func (td *testDaemon) client(srv *httptest.Server, opts ...api.ClientOption) *api.Client {
	return api.NewClient(srv.URL, opts...)
}
