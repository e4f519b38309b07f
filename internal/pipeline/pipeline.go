package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"quotereel/internal/composition"
	"quotereel/internal/job"
	"quotereel/internal/logging"
	"quotereel/internal/scene"
	"quotereel/internal/services"
	"quotereel/internal/subtitles"
)

// Step names reported in events and error details.
const (
	StepImage      = "image"
	StepAudio      = "audio"
	StepTranscript = "transcript"
	StepCompose    = "compose"
)

// Share of a scene's progress window reached when each step starts.
var stepFractions = map[string]float64{
	StepImage:      0,
	StepAudio:      0.25,
	StepTranscript: 0.5,
	StepCompose:    0.75,
}

// Event reports that a scene step is starting.
type Event struct {
	Scene    int
	Total    int
	Step     string
	Stage    string
	Progress int
}

// Request is one scene to render.
type Request struct {
	Scene scene.Scene
	// Index is 1-based; Total is the job's scene count.
	Index  int
	Total  int
	Config scene.RenderConfig
	Images ImageGenerator
	// GlobalPrompt is appended to the image prompt after the style prompt.
	GlobalPrompt string
	// WorkDir is the job's working directory; the scene uses a subdirectory.
	WorkDir string
}

// Dependencies are the collaborators a Pipeline delegates to.
type Dependencies struct {
	Synthesizer Synthesizer
	Transcriber Transcriber
	Translator  Translator
	Renderer    Renderer
	Prober      Prober
	FontDir     string
	StylePrompt string
}

// Pipeline renders scenes.
type Pipeline struct {
	deps   Dependencies
	logger *slog.Logger
}

// New constructs a Pipeline. A nil translator leaves prompts unchanged.
func New(deps Dependencies, logger *slog.Logger) *Pipeline {
	if deps.Translator == nil {
		deps.Translator = passthroughTranslator{}
	}
	return &Pipeline{deps: deps, logger: logging.NewComponentLogger(logger, "pipeline")}
}

// SceneDir is the working directory for scene index inside workDir.
func SceneDir(workDir string, index int) string {
	return filepath.Join(workDir, fmt.Sprintf("scene_%02d", index))
}

// Process runs the four scene steps in order and returns the rendered clip
// path. An event is sent on progress, when non-nil, before each step starts.
// The first failing step ends the scene.
func (p *Pipeline) Process(ctx context.Context, req Request, progress chan<- Event) (string, error) {
	if err := p.check(req); err != nil {
		return "", err
	}
	ctx = services.WithScene(ctx, req.Index)
	logger := logging.WithContext(ctx, p.logger)
	dir := SceneDir(req.WorkDir, req.Index)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "scene", "prepare work dir", dir, err)
	}
	started := time.Now()
	window := job.SceneWindow(req.Index, req.Total)
	cfg := req.Config

	imagePath := filepath.Join(dir, "image.png")
	if err := p.emit(ctx, progress, req, window, StepImage); err != nil {
		return "", err
	}
	if err := p.image(ctx, req, imagePath); err != nil {
		return "", err
	}

	audioPath := filepath.Join(dir, "narration.mp3")
	if err := p.emit(ctx, progress, req, window, StepAudio); err != nil {
		return "", err
	}
	if err := p.deps.Synthesizer.Synthesize(ctx, req.Scene.Narration, cfg.Language, audioPath); err != nil {
		return "", err
	}

	if err := p.emit(ctx, progress, req, window, StepTranscript); err != nil {
		return "", err
	}
	segments, err := p.deps.Transcriber.Transcribe(ctx, audioPath, cfg.Language, filepath.Join(dir, "transcript"))
	if err != nil {
		return "", err
	}

	if err := p.emit(ctx, progress, req, window, StepCompose); err != nil {
		return "", err
	}
	clip := filepath.Join(dir, "clip.mp4")
	if err := p.compose(ctx, req, dir, imagePath, audioPath, clip, segments); err != nil {
		return "", err
	}

	logger.Info("scene rendered",
		logging.String(logging.FieldEventType, "scene_complete"),
		logging.Int("segments", len(segments)),
		logging.String("clip", clip),
		logging.Duration("scene_duration", time.Since(started)),
	)
	return clip, nil
}

func (p *Pipeline) check(req Request) error {
	switch {
	case req.Images == nil:
		return services.Wrap(services.ErrConfiguration, "scene", "plan", "no image generator selected", nil)
	case p.deps.Synthesizer == nil || p.deps.Transcriber == nil || p.deps.Renderer == nil || p.deps.Prober == nil:
		return services.Wrap(services.ErrConfiguration, "scene", "plan", "pipeline collaborators are not configured", nil)
	case req.Index < 1 || req.Index > req.Total:
		return services.Wrap(services.ErrValidation, "scene", "plan", fmt.Sprintf("scene %d of %d", req.Index, req.Total), nil)
	case req.WorkDir == "":
		return services.Wrap(services.ErrValidation, "scene", "plan", "work directory required", nil)
	}
	return nil
}

func (p *Pipeline) emit(ctx context.Context, progress chan<- Event, req Request, window job.Window, step string) error {
	logging.WithContext(ctx, p.logger).Debug("scene step started",
		logging.String(logging.FieldEventType, "scene_step_start"),
		logging.String("step", step),
	)
	if progress == nil {
		return ctx.Err()
	}
	event := Event{
		Scene:    req.Index,
		Total:    req.Total,
		Step:     step,
		Stage:    fmt.Sprintf("scene %d/%d: %s", req.Index, req.Total, step),
		Progress: window.At(stepFractions[step]),
	}
	select {
	case progress <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) image(ctx context.Context, req Request, dest string) error {
	prompt := p.deps.Translator.Translate(ctx, req.Scene.ImagePrompt)
	prompt = ComposePrompt(prompt, p.deps.StylePrompt, req.GlobalPrompt)
	if err := req.Images.Generate(ctx, prompt, req.Config.Width, req.Config.Height, dest); err != nil {
		return err
	}
	img, err := imaging.Open(dest)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StepImage, "decode generated image", filepath.Base(dest), err)
	}
	bounds := img.Bounds()
	logging.WithContext(ctx, p.logger).Info("image generated",
		logging.String(logging.FieldEventType, "image_ready"),
		logging.String("backend", req.Config.ImageBackend),
		logging.Int("width", bounds.Dx()),
		logging.Int("height", bounds.Dy()),
	)
	return nil
}

func (p *Pipeline) compose(ctx context.Context, req Request, dir, image, audio, clip string, segments []subtitles.Segment) error {
	cfg := req.Config
	timeline, err := subtitles.Convert(segments, cfg)
	if err != nil {
		return err
	}
	in := composition.Inputs{
		Image:  image,
		Audio:  audio,
		Output: clip,
		Quote:  req.Scene.Quote,
		Author: req.Scene.Author,
	}
	fonts := make([]string, 0, 3)
	if !timeline.Empty() {
		fonts = append(fonts, filepath.Join(p.deps.FontDir, cfg.SubtitleFont))
		in.SubtitlesFile = filepath.Join(dir, "subtitles.ass")
		if err := timeline.WriteASS(in.SubtitlesFile); err != nil {
			return services.Wrap(services.ErrExternalTool, StepCompose, "write subtitles", in.SubtitlesFile, err)
		}
	}
	duration, err := p.deps.Prober.Duration(ctx, audio)
	if err != nil {
		return err
	}
	in.Duration = duration

	spec := composition.FromConfig(cfg, p.deps.FontDir, in)
	fonts = append(fonts, spec.FontFiles()...)
	if err := requireFonts(fonts); err != nil {
		return err
	}
	return p.deps.Renderer.RenderScene(ctx, spec)
}

func requireFonts(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			continue
		}
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, StepCompose, "resolve font", "font not found: "+filepath.Base(path), nil)
		}
		return services.Wrap(services.ErrExternalTool, StepCompose, "resolve font", path, err)
	}
	return nil
}
