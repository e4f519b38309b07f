// Package assembly joins rendered scene clips into the final video and
// optionally mixes background music under the narration.
package assembly

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"quotereel/internal/fileutil"
	"quotereel/internal/logging"
	"quotereel/internal/services"
)

// Encoder is the subset of encoding.Encoder the assembler needs.
type Encoder interface {
	Concat(ctx context.Context, clips []string, output string) error
	MixBackground(ctx context.Context, video, bgm string, volume float64, output string) error
}

// Assembly describes one final render.
type Assembly struct {
	// Clips are joined in slice order.
	Clips []string
	// BGM is an optional background track; empty skips mixing.
	BGM    string
	Volume float64
	// WorkDir holds intermediates; Output is only written once complete.
	WorkDir string
	Output  string
}

// Assembler produces final artifacts.
type Assembler struct {
	enc    Encoder
	logger *slog.Logger
}

// New returns an Assembler backed by enc.
func New(enc Encoder, logger *slog.Logger) *Assembler {
	return &Assembler{enc: enc, logger: logging.NewComponentLogger(logger, "assembly")}
}

// Assemble renders a and returns the final artifact path.
func (a *Assembler) Assemble(ctx context.Context, asm Assembly) (string, error) {
	if len(asm.Clips) == 0 {
		return "", services.Wrap(services.ErrValidation, "assemble", "plan", "no scene clips", nil)
	}
	if strings.TrimSpace(asm.Output) == "" || strings.TrimSpace(asm.WorkDir) == "" {
		return "", services.Wrap(services.ErrValidation, "assemble", "plan", "output and work directory are required", nil)
	}
	if err := os.MkdirAll(asm.WorkDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "assemble", "prepare", asm.WorkDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(asm.Output), 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "assemble", "prepare", asm.Output, err)
	}
	logger := logging.WithContext(ctx, a.logger)

	concatenated := filepath.Join(asm.WorkDir, "concat.mp4")
	if err := a.enc.Concat(ctx, asm.Clips, concatenated); err != nil {
		return "", err
	}
	logger.Info("scene clips concatenated",
		logging.Int("clips", len(asm.Clips)),
		logging.String(logging.FieldEventType, "assembly_concat"),
	)

	final := concatenated
	if bgm := strings.TrimSpace(asm.BGM); bgm != "" {
		mixed := filepath.Join(asm.WorkDir, "mixed.mp4")
		if err := a.enc.MixBackground(ctx, concatenated, bgm, asm.Volume, mixed); err != nil {
			return "", err
		}
		logger.Info("background music mixed",
			logging.String("bgm", filepath.Base(bgm)),
			logging.Float64("volume", asm.Volume),
			logging.String(logging.FieldEventType, "assembly_mix"),
		)
		final = mixed
	}

	if err := fileutil.MoveFile(final, asm.Output); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "assemble", "publish", asm.Output, err)
	}
	return asm.Output, nil
}
