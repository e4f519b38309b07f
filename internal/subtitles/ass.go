package subtitles

import (
	"bytes"
	"fmt"
	"strings"

	"quotereel/internal/fileutil"
	"quotereel/internal/scene"
)

const (
	styleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, " +
		"Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, " +
		"Alignment, MarginL, MarginR, MarginV, Encoding"
	eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

// assColor renders c as &H00BBGGRR.
func assColor(c scene.RGB) string {
	return fmt.Sprintf("&H00%02X%02X%02X", c.B, c.G, c.R)
}

// styleField sanitizes characters that would break the comma-separated style line.
func styleField(value string) string {
	return strings.NewReplacer(",", " ", "\n", " ", "\r", " ").Replace(value)
}

// ASS renders the timeline as a complete ASS document.
func (t Timeline) ASS() []byte {
	var b bytes.Buffer
	s := t.Style
	b.WriteString("[Script Info]\n")
	b.WriteString("Title: quotereel subtitles\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("ScaledBorderAndShadow: yes\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", s.PlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", s.PlayResY)
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString(styleFormat + "\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,&H000000FF,%s,&H00000000,0,0,0,0,100,100,0,0,1,%d,0,%d,10,10,%d,1\n",
		styleField(s.FontName), s.FontSize, assColor(s.Primary), assColor(s.Outline),
		s.OutlineWidth, s.Anchor.Alignment, s.Anchor.MarginV)
	b.WriteString("\n[Events]\n")
	b.WriteString(eventFormat + "\n")
	for _, cue := range t.Cues {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n", cue.Start, cue.End, cue.Text)
	}
	return b.Bytes()
}

// WriteASS writes the document to path atomically.
func (t Timeline) WriteASS(path string) error {
	if err := fileutil.WriteFileAtomic(path, t.ASS(), 0o644); err != nil {
		return fmt.Errorf("write subtitles %s: %w", path, err)
	}
	return nil
}

