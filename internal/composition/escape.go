package composition

import "strings"

// ffmpeg applies three unescaping passes to a drawtext value passed through
// -vf: the filtergraph parser, the option parser, and drawtext's own %{...}
// expansion. Values are escaped innermost first.

var (
	expansionEscaper   = strings.NewReplacer(`\`, `\\`, `%`, `\%`)
	optionEscaper      = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	filtergraphEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// EscapeOptionValue escapes an arbitrary option value, such as a file path,
// for use inside a filtergraph.
func EscapeOptionValue(value string) string {
	return filtergraphEscaper.Replace(optionEscaper.Replace(value))
}

// EscapeDrawtext escapes text for drawtext's text option.
func EscapeDrawtext(text string) string {
	return EscapeOptionValue(expansionEscaper.Replace(text))
}
