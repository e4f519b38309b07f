package testsupport

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"quotereel/internal/composition"
	"quotereel/internal/subtitles"
)

// FakeImages writes a solid PNG of the requested size and records prompts.
type FakeImages struct {
	mu      sync.Mutex
	Prompts []string
	Err     error
}

func (f *FakeImages) Generate(_ context.Context, prompt string, width, height int, dest string) error {
	f.mu.Lock()
	f.Prompts = append(f.Prompts, prompt)
	err := f.Err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return imaging.Save(imaging.New(width/8, height/8, color.NRGBA{R: 200, G: 190, B: 170, A: 255}), dest)
}

// PromptList returns a copy of the recorded prompts.
func (f *FakeImages) PromptList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Prompts...)
}

// FakeSynthesizer writes placeholder audio.
type FakeSynthesizer struct {
	Err error
}

func (f *FakeSynthesizer) Synthesize(_ context.Context, text, _ string, dest string) error {
	if f.Err != nil {
		return f.Err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("ID3"+text), 0o644)
}

// FakeTranscriber returns one segment per call spanning two seconds, or
// Segments when set.
type FakeTranscriber struct {
	Segments []subtitles.Segment
	Err      error
}

func (f *FakeTranscriber) Transcribe(context.Context, string, string, string) ([]subtitles.Segment, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Segments != nil {
		return f.Segments, nil
	}
	return []subtitles.Segment{{Start: 0, End: 2, Text: "narration"}}, nil
}

// FakeProber reports a fixed duration.
type FakeProber struct {
	Seconds float64
}

func (f FakeProber) Duration(context.Context, string) (float64, error) {
	if f.Seconds <= 0 {
		return 3, nil
	}
	return f.Seconds, nil
}

// FakeEncoder stands in for the ffmpeg encoder. It writes placeholder files
// for every output and records each call.
type FakeEncoder struct {
	mu         sync.Mutex
	Specs      []composition.Spec
	Concats    [][]string
	Mixes      []string
	RenderErr  error
	ConcatSize int64
}

func (f *FakeEncoder) RenderScene(_ context.Context, spec composition.Spec) error {
	if _, err := composition.Build(spec); err != nil {
		return err
	}
	f.mu.Lock()
	f.Specs = append(f.Specs, spec)
	err := f.RenderErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return writePlaceholder(spec.Output, 1024)
}

func (f *FakeEncoder) Concat(_ context.Context, clips []string, output string) error {
	f.mu.Lock()
	f.Concats = append(f.Concats, append([]string(nil), clips...))
	size := f.ConcatSize
	f.mu.Unlock()
	if size <= 0 {
		size = 4096
	}
	return writePlaceholder(output, size)
}

func (f *FakeEncoder) MixBackground(_ context.Context, _, bgm string, _ float64, output string) error {
	f.mu.Lock()
	f.Mixes = append(f.Mixes, bgm)
	f.mu.Unlock()
	return writePlaceholder(output, 4096)
}

// Snapshot returns copies of the recorded calls.
func (f *FakeEncoder) Snapshot() (specs []composition.Spec, concats [][]string, mixes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]composition.Spec(nil), f.Specs...),
		append([][]string(nil), f.Concats...),
		append([]string(nil), f.Mixes...)
}

func writePlaceholder(path string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, make([]byte, size), 0o644)
}
