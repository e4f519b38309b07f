package subtitles

import (
	"fmt"
	"path/filepath"
	"strings"

	"quotereel/internal/scene"
	"quotereel/internal/services"
)

// Anchor is an ASS numpad alignment plus vertical margin.
type Anchor struct {
	Alignment int
	MarginV   int
}

// edgeMargin keeps top and bottom subtitles off the frame edge.
const edgeMargin = 50

// AnchorFor maps a subtitle position to its layout anchor.
func AnchorFor(position string) (Anchor, error) {
	switch position {
	case scene.PositionTop:
		return Anchor{Alignment: 8, MarginV: edgeMargin}, nil
	case scene.PositionCenter:
		return Anchor{Alignment: 5, MarginV: 0}, nil
	case scene.PositionBottom:
		return Anchor{Alignment: 2, MarginV: edgeMargin}, nil
	default:
		return Anchor{}, services.Wrap(services.ErrConfiguration, "subtitles", "position",
			fmt.Sprintf("unsupported subtitle position %q", position), nil)
	}
}

// Style is the single ASS style every cue uses.
type Style struct {
	FontName     string
	FontSize     int
	Primary      scene.RGB
	Outline      scene.RGB
	OutlineWidth int
	Anchor       Anchor
	PlayResX     int
	PlayResY     int
}

// Cue is one converted dialogue line.
type Cue struct {
	Start string
	End   string
	Text  string
}

// Timeline is the styled, ordered cue list for one scene.
type Timeline struct {
	Style Style
	Cues  []Cue
}

// Empty reports whether there is nothing to draw.
func (t Timeline) Empty() bool { return len(t.Cues) == 0 }

// Convert builds a timeline from segments using the subtitle options in cfg.
// Input order is preserved and overlapping segments are kept as-is; segments
// whose text is blank after normalization produce no cue.
func Convert(segments []Segment, cfg scene.RenderConfig) (Timeline, error) {
	anchor, err := AnchorFor(cfg.SubtitlePosition)
	if err != nil {
		return Timeline{}, err
	}
	primary, err := scene.ParseColor(cfg.SubtitleColor)
	if err != nil {
		return Timeline{}, services.Wrap(services.ErrConfiguration, "subtitles", "color", "subtitle color", err)
	}
	outline, err := scene.ParseColor(cfg.SubtitleOutlineColor)
	if err != nil {
		return Timeline{}, services.Wrap(services.ErrConfiguration, "subtitles", "color", "subtitle outline color", err)
	}

	timeline := Timeline{
		Style: Style{
			FontName:     FontName(cfg.SubtitleFont),
			FontSize:     cfg.SubtitleFontSize,
			Primary:      primary,
			Outline:      outline,
			OutlineWidth: cfg.SubtitleOutlineWidth,
			Anchor:       anchor,
			PlayResX:     cfg.Width,
			PlayResY:     cfg.Height,
		},
		Cues: make([]Cue, 0, len(segments)),
	}
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return Timeline{}, services.Wrap(services.ErrValidation, "subtitles", "convert",
				fmt.Sprintf("segment %d", i+1), err)
		}
		text := NormalizeText(seg.Text)
		if text == "" {
			continue
		}
		timeline.Cues = append(timeline.Cues, Cue{
			Start: FormatTimestamp(seg.Start),
			End:   FormatTimestamp(seg.End),
			Text:  text,
		})
	}
	return timeline, nil
}

// FontName derives the family name libass matches against fontsdir from a
// font file name.
func FontName(file string) string {
	base := filepath.Base(strings.TrimSpace(file))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
