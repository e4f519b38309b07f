package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"quotereel/internal/services"
)

func TestTranscribeParsesSegments(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "scene_1.mp3")
	outDir := filepath.Join(dir, "transcript")

	var gotName string
	var gotArgs []string
	svc := NewService(Config{Model: "small"})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		doc := `{"text":"one two","segments":[{"id":0,"start":0.0,"end":1.5,"text":" one "},{"id":1,"start":1.5,"end":1.5,"text":"  "},{"id":2,"start":1.5,"end":3.25,"text":"two"}],"language":"ko"}`
		return os.WriteFile(filepath.Join(outDir, "scene_1.json"), []byte(doc), 0o644)
	})

	segments, err := svc.Transcribe(context.Background(), audio, "ko-KR", outDir)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if gotName != DefaultBinary {
		t.Fatalf("binary = %q", gotName)
	}
	want := []string{audio, "--model", "small", "--output_format", "json", "--output_dir", outDir, "--verbose", "False", "--language", "ko"}
	if !slices.Equal(gotArgs, want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "one" || segments[1].Start != 1.5 || segments[1].End != 3.25 {
		t.Fatalf("unexpected segments %+v", segments)
	}
}

func TestTranscribeAutoLanguageOmitsFlag(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "a.wav")
	svc := NewService(Config{Language: "auto"})
	svc.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		if slices.Contains(args, "--language") {
			t.Errorf("auto language must not pass --language: %v", args)
		}
		return os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"segments":[]}`), 0o644)
	})
	segments, err := svc.Transcribe(context.Background(), audio, "", "")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %v", segments)
	}
}

func TestTranscribeFailures(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	if _, err := svc.Transcribe(context.Background(), filepath.Join(dir, "a.wav"), "ko", dir); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}

	svc.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	if _, err := svc.Transcribe(context.Background(), filepath.Join(dir, "b.wav"), "ko", dir); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("missing transcript should fail, got %v", err)
	}
	if _, err := svc.Transcribe(context.Background(), "", "ko", dir); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty audio path should be a validation error, got %v", err)
	}
}
