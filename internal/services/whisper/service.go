package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"quotereel/internal/scene"
	"quotereel/internal/services"
	"quotereel/internal/subtitles"
)

const (
	DefaultBinary = "whisper"
	DefaultModel  = "large-v3"
	outputFormat  = "json"
	stageName     = "transcription"
)

// Config captures runtime settings for the whisper CLI.
type Config struct {
	Binary string
	Model  string
	// Language is used when the caller passes no language. "auto" or empty
	// lets whisper detect it.
	Language string
}

// Service transcribes audio files.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe runs whisper on audio and returns its segments in file order.
// outputDir receives the CLI's JSON document.
func (s *Service) Transcribe(ctx context.Context, audio, language, outputDir string) ([]subtitles.Segment, error) {
	if strings.TrimSpace(audio) == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "transcribe", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audio)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "ensure output dir", outputDir, err)
	}
	if err := s.run(ctx, s.cfg.Binary, s.buildArgs(audio, outputDir, language)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "run whisper", "", err)
	}
	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	segments, err := loadSegments(filepath.Join(outputDir, base+".json"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "read transcript", "", err)
	}
	return segments, nil
}

func (s *Service) buildArgs(audio, outputDir, language string) []string {
	args := []string{
		audio,
		"--model", s.cfg.Model,
		"--output_format", outputFormat,
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if strings.TrimSpace(language) == "" {
		language = s.cfg.Language
	}
	if lang := scene.BaseLanguage(language); lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

type transcript struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func loadSegments(path string) ([]subtitles.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload transcript
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	segments := make([]subtitles.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitles.Segment{Start: seg.Start, End: seg.End, Text: text})
	}
	return segments, nil
}
