package scene

import "strings"

// Resolve merges the scene overrides, the job-level options and the system
// default. For every field the first defined value wins, in that order.
func Resolve(sc Scene, job JobOptions, def RenderConfig) RenderConfig {
	so, jo := sc.Overrides, job.Options
	return RenderConfig{
		Width:                first(nil, job.Width, def.Width),
		Height:               first(nil, job.Height, def.Height),
		FPS:                  def.FPS,
		FadeDuration:         def.FadeDuration,
		FadeIn:               first(so.FadeIn, jo.FadeIn, def.FadeIn),
		FadeOut:              first(so.FadeOut, jo.FadeOut, def.FadeOut),
		SubtitleFont:         firstText(so.SubtitleFont, jo.SubtitleFont, def.SubtitleFont),
		SubtitleFontSize:     first(so.SubtitleFontSize, jo.SubtitleFontSize, def.SubtitleFontSize),
		SubtitleColor:        firstText(so.SubtitleColor, jo.SubtitleColor, def.SubtitleColor),
		SubtitleOutlineColor: firstText(so.SubtitleOutlineColor, jo.SubtitleOutlineColor, def.SubtitleOutlineColor),
		SubtitleOutlineWidth: first(so.SubtitleOutlineWidth, jo.SubtitleOutlineWidth, def.SubtitleOutlineWidth),
		SubtitlePosition:     firstText(so.SubtitlePosition, jo.SubtitlePosition, def.SubtitlePosition),
		QuoteFont:            firstText(so.QuoteFont, jo.QuoteFont, def.QuoteFont),
		QuoteFontSize:        first(so.QuoteFontSize, jo.QuoteFontSize, def.QuoteFontSize),
		QuoteOutlineWidth:    def.QuoteOutlineWidth,
		QuoteShadowOffset:    def.QuoteShadowOffset,
		AuthorFont:           firstText(so.AuthorFont, jo.AuthorFont, def.AuthorFont),
		AuthorFontSize:       first(so.AuthorFontSize, jo.AuthorFontSize, def.AuthorFontSize),
		AuthorOutlineWidth:   def.AuthorOutlineWidth,
		TextColor:            firstText(so.TextColor, jo.TextColor, def.TextColor),
		TextOutlineColor:     firstText(so.TextOutlineColor, jo.TextOutlineColor, def.TextOutlineColor),
		ImageBackend:         firstText(nil, job.ImageBackend, def.ImageBackend),
		Language:             firstText(textPtr(sc.Language), job.Language, def.Language),
	}
}

func first[T any](sceneValue, jobValue *T, def T) T {
	if sceneValue != nil {
		return *sceneValue
	}
	if jobValue != nil {
		return *jobValue
	}
	return def
}

// firstText treats blank strings as unset.
func firstText(sceneValue, jobValue *string, def string) string {
	if sceneValue != nil && strings.TrimSpace(*sceneValue) != "" {
		return strings.TrimSpace(*sceneValue)
	}
	if jobValue != nil && strings.TrimSpace(*jobValue) != "" {
		return strings.TrimSpace(*jobValue)
	}
	return def
}

func textPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
