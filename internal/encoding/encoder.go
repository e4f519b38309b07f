package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"quotereel/internal/composition"
	"quotereel/internal/fileutil"
	"quotereel/internal/logging"
	"quotereel/internal/services"
)

// Encoder drives ffmpeg.
type Encoder struct {
	binary string
	run    CommandRunner
	logger *slog.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r CommandRunner) Option {
	return func(e *Encoder) {
		if r != nil {
			e.run = r
		}
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEncoder returns an Encoder for the ffmpeg binary, defaulting to "ffmpeg".
func NewEncoder(binary string, opts ...Option) *Encoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	e := &Encoder{binary: binary, run: DefaultRunner, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RenderScene encodes one scene clip from spec.
func (e *Encoder) RenderScene(ctx context.Context, spec composition.Spec) error {
	chain, err := composition.Build(spec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(spec.Output), 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "prepare output", spec.Output, err)
	}
	args := SceneArgs(spec, chain)
	logging.WithContext(ctx, e.logger).Debug("ffmpeg scene encode",
		logging.String("output", spec.Output),
		logging.String("filters", chain.String()),
	)
	if err := e.run(ctx, e.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "render scene", filepath.Base(spec.Output), err)
	}
	return nil
}

// Concat joins clips in order into output by stream copy. The list file is
// written next to output and left in place for inspection.
func (e *Encoder) Concat(ctx context.Context, clips []string, output string) error {
	if len(clips) == 0 {
		return services.Wrap(services.ErrValidation, "assemble", "concat", "no clips to concatenate", nil)
	}
	abs := make([]string, len(clips))
	for i, clip := range clips {
		path, err := filepath.Abs(clip)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "assemble", "concat", clip, err)
		}
		abs[i] = path
	}
	listFile := strings.TrimSuffix(output, filepath.Ext(output)) + ".concat.txt"
	if err := fileutil.WriteFileAtomic(listFile, []byte(ConcatList(abs)), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "write concat list", listFile, err)
	}
	logging.WithContext(ctx, e.logger).Debug("ffmpeg concat",
		logging.Int("clips", len(clips)),
		logging.String("output", output),
	)
	if err := e.run(ctx, e.binary, ConcatArgs(listFile, output)...); err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "concat", filepath.Base(output), err)
	}
	return nil
}

// MixBackground mixes bgm under the narration of video into output.
func (e *Encoder) MixBackground(ctx context.Context, video, bgm string, volume float64, output string) error {
	if volume < 0 || volume > 1 {
		return services.Wrap(services.ErrConfiguration, "assemble", "mix", fmt.Sprintf("bgm volume %v outside 0..1", volume), nil)
	}
	if _, err := os.Stat(bgm); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, "assemble", "mix", "background music not found: "+filepath.Base(bgm), err)
		}
		return services.Wrap(services.ErrExternalTool, "assemble", "mix", bgm, err)
	}
	logging.WithContext(ctx, e.logger).Debug("ffmpeg bgm mix",
		logging.String("bgm", bgm),
		logging.Float64("volume", volume),
	)
	if err := e.run(ctx, e.binary, MixArgs(video, bgm, volume, output)...); err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "mix", filepath.Base(output), err)
	}
	return nil
}
