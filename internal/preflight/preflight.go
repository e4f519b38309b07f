package preflight

import (
	"context"
	"strings"

	"quotereel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryReadable("Font directory", cfg.Paths.FontDir),
		CheckFonts(cfg.Paths.FontDir, cfg.Render.Fonts()),
	}
	if strings.TrimSpace(cfg.Paths.BGMDir) != "" {
		results = append(results, CheckDirectoryReadable("Music directory", cfg.Paths.BGMDir))
	}
	results = append(results, CheckStore(ctx, cfg))

	if cfg.Image.ComfyUIURL != "" {
		results = append(results, CheckHTTP(ctx, "ComfyUI", strings.TrimRight(cfg.Image.ComfyUIURL, "/")+"/system_stats"))
	}
	if cfg.Image.Flux2CURL != "" {
		results = append(results, CheckHTTP(ctx, "flux2c-api", cfg.Image.Flux2CURL))
	}
	results = append(results, CheckSecret("ElevenLabs API key", cfg.TTS.APIKey, false))
	results = append(results, CheckSecret("DeepL API key", cfg.Translation.APIKey, true))
	return results
}
