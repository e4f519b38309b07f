package composition

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"quotereel/internal/scene"
	"quotereel/internal/services"
)

// shadowColor is the fixed drop-shadow colour of text overlays.
const shadowColor = "black@0.6"

// Overlay is one centred drawtext layer.
type Overlay struct {
	Text         string
	FontFile     string
	FontSize     int
	Color        string
	OutlineColor string
	OutlineWidth int
	ShadowOffset int
	// OffsetY moves the layer's centre from the frame centre; negative is up.
	OffsetY int
}

// Spec is everything needed to render one scene clip.
type Spec struct {
	Image  string
	Audio  string
	Output string

	Width        int
	Height       int
	FPS          int
	Duration     float64
	FadeDuration float64
	FadeIn       bool
	FadeOut      bool

	// Overlays are drawn in order: quote first, then author.
	Overlays []Overlay

	// SubtitlesFile is the ASS document to burn in; empty skips the filter.
	SubtitlesFile string
	FontsDir      string
}

// Filter is one filter with its already-escaped option string.
type Filter struct {
	Name string
	Args string
}

func (f Filter) String() string {
	if f.Args == "" {
		return f.Name
	}
	return f.Name + "=" + f.Args
}

// Chain is an ordered, linear filter chain.
type Chain []Filter

// String renders the chain as a -vf argument.
func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, f := range c {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

// Names lists filter names in order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Name
	}
	return names
}

// Build returns the filter chain for spec.
func Build(spec Spec) (Chain, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, invalid(fmt.Sprintf("invalid resolution %dx%d", spec.Width, spec.Height))
	}
	if spec.Duration < 0 || math.IsNaN(spec.Duration) || math.IsInf(spec.Duration, 0) {
		return nil, invalid(fmt.Sprintf("invalid duration %v", spec.Duration))
	}
	if spec.FadeDuration < 0 {
		return nil, invalid(fmt.Sprintf("invalid fade duration %v", spec.FadeDuration))
	}

	chain := Chain{
		{Name: "scale", Args: fmt.Sprintf("'min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", spec.Width, spec.Height)},
		{Name: "pad", Args: fmt.Sprintf("%d:%d:(ow-iw)/2:(oh-ih)/2", spec.Width, spec.Height)},
	}
	if spec.FadeIn && spec.FadeDuration > 0 {
		chain = append(chain, Filter{Name: "fade", Args: "t=in:st=0:d=" + seconds(spec.FadeDuration)})
	}
	if spec.FadeOut && spec.FadeDuration > 0 {
		start := math.Max(0, spec.Duration-spec.FadeDuration)
		chain = append(chain, Filter{Name: "fade", Args: "t=out:st=" + seconds(start) + ":d=" + seconds(spec.FadeDuration)})
	}
	for i, overlay := range spec.Overlays {
		f, err := drawtext(overlay)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "composition", "overlay",
				fmt.Sprintf("overlay %d", i+1), err)
		}
		if f.Name == "" {
			continue
		}
		chain = append(chain, f)
	}
	if spec.SubtitlesFile != "" {
		args := "filename=" + EscapeOptionValue(spec.SubtitlesFile)
		if spec.FontsDir != "" {
			args += ":fontsdir=" + EscapeOptionValue(spec.FontsDir)
		}
		chain = append(chain, Filter{Name: "subtitles", Args: args})
	}
	return chain, nil
}

func drawtext(o Overlay) (Filter, error) {
	text := strings.TrimSpace(strings.ReplaceAll(norm.NFC.String(o.Text), "\r\n", "\n"))
	if text == "" {
		return Filter{}, nil
	}
	if strings.TrimSpace(o.FontFile) == "" {
		return Filter{}, fmt.Errorf("font file is required")
	}
	color, err := ffmpegColor(o.Color)
	if err != nil {
		return Filter{}, err
	}
	outline, err := ffmpegColor(o.OutlineColor)
	if err != nil {
		return Filter{}, err
	}
	opts := []string{
		"fontfile=" + EscapeOptionValue(o.FontFile),
		"text=" + EscapeDrawtext(text),
		"fontsize=" + strconv.Itoa(o.FontSize),
		"fontcolor=" + color,
		"borderw=" + strconv.Itoa(o.OutlineWidth),
		"bordercolor=" + outline,
		"shadowx=" + strconv.Itoa(o.ShadowOffset),
		"shadowy=" + strconv.Itoa(o.ShadowOffset),
		"shadowcolor=" + shadowColor,
		"line_spacing=" + strconv.Itoa(o.FontSize/4),
		"x=(w-text_w)/2",
		"y=" + verticalExpr(o.OffsetY),
	}
	return Filter{Name: "drawtext", Args: strings.Join(opts, ":")}, nil
}

func verticalExpr(offset int) string {
	switch {
	case offset < 0:
		return fmt.Sprintf("(h-text_h)/2-%d", -offset)
	case offset > 0:
		return fmt.Sprintf("(h-text_h)/2+%d", offset)
	default:
		return "(h-text_h)/2"
	}
}

func ffmpegColor(value string) (string, error) {
	rgb, err := scene.ParseColor(value)
	if err != nil {
		return "", err
	}
	return "0x" + rgb.Hex(), nil
}

// seconds formats a duration rounded to milliseconds with no trailing zeros.
func seconds(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, "composition", "build", message, nil)
}
