package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"quotereel/internal/services"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio", Duration: "2.5"}, {CodecType: "audio", Duration: "4.25"}}}
	if got := result.DurationSeconds(); got != 4.25 {
		t.Fatalf("expected 4.25, got %v", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestProberDuration(t *testing.T) {
	bin := writeScript(t, `echo '{"streams":[{"codec_type":"audio","duration":"3.2"}],"format":{"duration":"3.25","size":"2048"}}'`+"\n")
	got, err := New(bin).Duration(context.Background(), "/tmp/a.mp3")
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if got != 3.25 {
		t.Fatalf("expected 3.25, got %v", got)
	}
}

func TestProberFailureIsExternalToolError(t *testing.T) {
	bin := writeScript(t, "echo 'boom' >&2\nexit 1\n")
	_, err := New(bin).Inspect(context.Background(), "/tmp/a.mp3")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}

	empty := writeScript(t, `echo '{"streams":[],"format":{}}'`+"\n")
	if _, err := New(empty).Duration(context.Background(), "/tmp/a.mp3"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error for missing duration, got %v", err)
	}
}
