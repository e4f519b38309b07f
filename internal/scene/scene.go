package scene

// Subtitle anchor positions.
const (
	PositionTop    = "top"
	PositionCenter = "center"
	PositionBottom = "bottom"
)

// Image synthesis backends.
const (
	BackendComfyUI = "comfyui"
	BackendFlux2C  = "flux2c-api"
)

// Scene is one narration and image unit of the output video.
type Scene struct {
	Narration   string  `json:"narration" yaml:"narration" validate:"required"`
	ImagePrompt string  `json:"image_prompt" yaml:"image_prompt" validate:"required"`
	Quote       string  `json:"quote,omitempty" yaml:"quote,omitempty"`
	Author      string  `json:"author,omitempty" yaml:"author,omitempty"`
	Language    string  `json:"language,omitempty" yaml:"language,omitempty" validate:"omitempty,langtag"`
	Overrides   Options `json:"overrides" yaml:"overrides"`
}

// Options holds the stylistic values a scene or a job may override. A nil
// field (or a blank string) means "not set at this level".
type Options struct {
	SubtitleFont         *string `json:"subtitle_font,omitempty" yaml:"subtitle_font,omitempty" validate:"omitempty,fontfile"`
	SubtitleFontSize     *int    `json:"subtitle_font_size,omitempty" yaml:"subtitle_font_size,omitempty" validate:"omitempty,min=20,max=120"`
	SubtitleColor        *string `json:"subtitle_color,omitempty" yaml:"subtitle_color,omitempty" validate:"omitempty,color"`
	SubtitleOutlineColor *string `json:"subtitle_outline_color,omitempty" yaml:"subtitle_outline_color,omitempty" validate:"omitempty,color"`
	SubtitleOutlineWidth *int    `json:"subtitle_outline_width,omitempty" yaml:"subtitle_outline_width,omitempty" validate:"omitempty,min=0,max=10"`
	SubtitlePosition     *string `json:"subtitle_position,omitempty" yaml:"subtitle_position,omitempty" validate:"omitempty,oneof=top center bottom"`
	QuoteFont            *string `json:"quote_font,omitempty" yaml:"quote_font,omitempty" validate:"omitempty,fontfile"`
	QuoteFontSize        *int    `json:"quote_font_size,omitempty" yaml:"quote_font_size,omitempty" validate:"omitempty,min=20,max=200"`
	AuthorFont           *string `json:"author_font,omitempty" yaml:"author_font,omitempty" validate:"omitempty,fontfile"`
	AuthorFontSize       *int    `json:"author_font_size,omitempty" yaml:"author_font_size,omitempty" validate:"omitempty,min=20,max=200"`
	TextColor            *string `json:"text_color,omitempty" yaml:"text_color,omitempty" validate:"omitempty,color"`
	TextOutlineColor     *string `json:"text_outline_color,omitempty" yaml:"text_outline_color,omitempty" validate:"omitempty,color"`
	FadeIn               *bool   `json:"fade_in,omitempty" yaml:"fade_in,omitempty"`
	FadeOut              *bool   `json:"fade_out,omitempty" yaml:"fade_out,omitempty"`
}

// JobOptions are the global overrides submitted with a job. Resolution and
// backend are job-wide because every scene clip must share encoder settings
// for the final stream copy.
type JobOptions struct {
	Options `yaml:",inline"`

	Width           *int     `json:"width,omitempty" yaml:"width,omitempty" validate:"omitempty,min=512,max=2048"`
	Height          *int     `json:"height,omitempty" yaml:"height,omitempty" validate:"omitempty,min=512,max=2048"`
	ImageBackend    *string  `json:"image_backend,omitempty" yaml:"image_backend,omitempty" validate:"omitempty,oneof=comfyui flux2c-api"`
	Flux2CURL       string   `json:"flux2c_api_url,omitempty" yaml:"flux2c_api_url,omitempty" validate:"omitempty,url"`
	Language        *string  `json:"language,omitempty" yaml:"language,omitempty" validate:"omitempty,langtag"`
	GlobalPrompt    string   `json:"global_prompt,omitempty" yaml:"global_prompt,omitempty"`
	BackgroundMusic string   `json:"background_music,omitempty" yaml:"background_music,omitempty" validate:"omitempty,basename"`
	BGMVolume       *float64 `json:"bgm_volume,omitempty" yaml:"bgm_volume,omitempty" validate:"omitempty,min=0,max=1"`
	Label           string   `json:"label,omitempty" yaml:"label,omitempty" validate:"max=100"`
}

// RenderConfig is the fully resolved style and resolution for one scene.
// Every field is required; Resolve never leaves a zero placeholder behind
// unless the default itself carries it.
type RenderConfig struct {
	Width                int     `json:"width" toml:"width" validate:"min=512,max=2048"`
	Height               int     `json:"height" toml:"height" validate:"min=512,max=2048"`
	FPS                  int     `json:"fps" toml:"fps" validate:"min=1,max=120"`
	FadeDuration         float64 `json:"fade_duration" toml:"fade_duration" validate:"min=0,max=5"`
	FadeIn               bool    `json:"fade_in" toml:"fade_in"`
	FadeOut              bool    `json:"fade_out" toml:"fade_out"`
	SubtitleFont         string  `json:"subtitle_font" toml:"subtitle_font" validate:"fontfile"`
	SubtitleFontSize     int     `json:"subtitle_font_size" toml:"subtitle_font_size" validate:"min=20,max=120"`
	SubtitleColor        string  `json:"subtitle_color" toml:"subtitle_color" validate:"color"`
	SubtitleOutlineColor string  `json:"subtitle_outline_color" toml:"subtitle_outline_color" validate:"color"`
	SubtitleOutlineWidth int     `json:"subtitle_outline_width" toml:"subtitle_outline_width" validate:"min=0,max=10"`
	SubtitlePosition     string  `json:"subtitle_position" toml:"subtitle_position" validate:"oneof=top center bottom"`
	QuoteFont            string  `json:"quote_font" toml:"quote_font" validate:"fontfile"`
	QuoteFontSize        int     `json:"quote_font_size" toml:"quote_font_size" validate:"min=20,max=200"`
	QuoteOutlineWidth    int     `json:"quote_outline_width" toml:"quote_outline_width" validate:"min=0,max=10"`
	QuoteShadowOffset    int     `json:"quote_shadow_offset" toml:"quote_shadow_offset" validate:"min=0,max=20"`
	AuthorFont           string  `json:"author_font" toml:"author_font" validate:"fontfile"`
	AuthorFontSize       int     `json:"author_font_size" toml:"author_font_size" validate:"min=20,max=200"`
	AuthorOutlineWidth   int     `json:"author_outline_width" toml:"author_outline_width" validate:"min=0,max=10"`
	TextColor            string  `json:"text_color" toml:"text_color" validate:"color"`
	TextOutlineColor     string  `json:"text_outline_color" toml:"text_outline_color" validate:"color"`
	ImageBackend         string  `json:"image_backend" toml:"image_backend" validate:"oneof=comfyui flux2c-api"`
	Language             string  `json:"language" toml:"language" validate:"langtag"`
}

// DefaultRenderConfig returns the built-in system defaults: a vertical 9:16
// frame with bottom-anchored subtitles.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Width:                1080,
		Height:               1920,
		FPS:                  30,
		FadeDuration:         0.5,
		FadeIn:               true,
		FadeOut:              true,
		SubtitleFont:         "KOTRA_BOLD.otf",
		SubtitleFontSize:     48,
		SubtitleColor:        "#FFFFFF",
		SubtitleOutlineColor: "#000000",
		SubtitleOutlineWidth: 2,
		SubtitlePosition:     PositionBottom,
		QuoteFont:            "RIDIBatang.otf",
		QuoteFontSize:        72,
		QuoteOutlineWidth:    3,
		QuoteShadowOffset:    2,
		AuthorFont:           "RIDIBatang.otf",
		AuthorFontSize:       52,
		AuthorOutlineWidth:   2,
		TextColor:            "white",
		TextOutlineColor:     "black",
		ImageBackend:         BackendComfyUI,
		Language:             "ko",
	}
}

// Fonts lists the distinct font files referenced by cfg.
func (cfg RenderConfig) Fonts() []string {
	out := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)
	for _, name := range []string{cfg.SubtitleFont, cfg.QuoteFont, cfg.AuthorFont} {
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
