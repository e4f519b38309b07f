package scene

import (
	"strings"

	"golang.org/x/text/language"
)

// LanguageAuto asks the transcriber to detect the spoken language.
const LanguageAuto = "auto"

// NormalizeLanguage canonicalises a BCP 47 tag ("ko-kr" -> "ko-KR"). The
// special value "auto" passes through unchanged.
func NormalizeLanguage(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if strings.EqualFold(trimmed, LanguageAuto) {
		return LanguageAuto, nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// BaseLanguage returns the ISO 639-1 base of a tag ("ko-KR" -> "ko"), or ""
// for "auto" and unparseable values.
func BaseLanguage(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, LanguageAuto) {
		return ""
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}
