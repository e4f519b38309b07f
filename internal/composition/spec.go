package composition

import (
	"path/filepath"

	"quotereel/internal/scene"
)

// Inputs are the per-scene artifacts and text a Spec is built around.
type Inputs struct {
	Image         string
	Audio         string
	Output        string
	Duration      float64
	Quote         string
	Author        string
	SubtitlesFile string
}

// textOffsetDivisor places the quote an eighth of the frame above centre and
// the author the same distance below.
const textOffsetDivisor = 8

// FromConfig assembles a Spec from a resolved RenderConfig. Font names in cfg
// are resolved inside fontDir.
func FromConfig(cfg scene.RenderConfig, fontDir string, in Inputs) Spec {
	spec := Spec{
		Image:         in.Image,
		Audio:         in.Audio,
		Output:        in.Output,
		Width:         cfg.Width,
		Height:        cfg.Height,
		FPS:           cfg.FPS,
		Duration:      in.Duration,
		FadeDuration:  cfg.FadeDuration,
		FadeIn:        cfg.FadeIn,
		FadeOut:       cfg.FadeOut,
		SubtitlesFile: in.SubtitlesFile,
		FontsDir:      fontDir,
	}
	offset := cfg.Height / textOffsetDivisor
	if in.Quote != "" {
		spec.Overlays = append(spec.Overlays, Overlay{
			Text:         in.Quote,
			FontFile:     filepath.Join(fontDir, cfg.QuoteFont),
			FontSize:     cfg.QuoteFontSize,
			Color:        cfg.TextColor,
			OutlineColor: cfg.TextOutlineColor,
			OutlineWidth: cfg.QuoteOutlineWidth,
			ShadowOffset: cfg.QuoteShadowOffset,
			OffsetY:      -offset,
		})
		// the author line only makes sense under a quote
		if in.Author != "" {
			spec.Overlays = append(spec.Overlays, Overlay{
				Text:         in.Author,
				FontFile:     filepath.Join(fontDir, cfg.AuthorFont),
				FontSize:     cfg.AuthorFontSize,
				Color:        cfg.TextColor,
				OutlineColor: cfg.TextOutlineColor,
				OutlineWidth: cfg.AuthorOutlineWidth,
				ShadowOffset: cfg.QuoteShadowOffset,
				OffsetY:      offset,
			})
		}
	}
	return spec
}

// FontFiles lists the font files referenced by the enabled overlays.
func (s Spec) FontFiles() []string {
	out := make([]string, 0, len(s.Overlays))
	for _, o := range s.Overlays {
		out = append(out, o.FontFile)
	}
	return out
}
