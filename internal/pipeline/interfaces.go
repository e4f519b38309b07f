package pipeline

import (
	"context"

	"quotereel/internal/composition"
	"quotereel/internal/subtitles"
)

// ImageGenerator renders a prompt into an image file.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, width, height int, dest string) error
}

// Synthesizer speaks narration into an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language, dest string) error
}

// Transcriber returns timed segments for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audio, language, outputDir string) ([]subtitles.Segment, error)
}

// Translator rewrites image prompts for the image model. Implementations
// return the input on failure.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Renderer encodes one scene clip.
type Renderer interface {
	RenderScene(ctx context.Context, spec composition.Spec) error
}

// Prober measures media duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type passthroughTranslator struct{}

func (passthroughTranslator) Translate(_ context.Context, text string) string { return text }
