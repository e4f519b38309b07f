package subtitles

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Segment is one timed transcript entry in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Validate reports timing that no transcriber should produce.
func (s Segment) Validate() error {
	switch {
	case math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0):
		return fmt.Errorf("segment timing is not finite: [%v, %v)", s.Start, s.End)
	case s.Start < 0 || s.End < 0:
		return fmt.Errorf("segment timing is negative: [%v, %v)", s.Start, s.End)
	case s.End < s.Start:
		return fmt.Errorf("segment ends before it starts: [%v, %v)", s.Start, s.End)
	}
	return nil
}

// floorEpsilon absorbs binary representation error so 61.23 is not floored
// to 61.22.
const floorEpsilon = 1e-6

// Centiseconds floors seconds to hundredths.
func Centiseconds(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	return int64(math.Floor(seconds*100 + floorEpsilon))
}

// FormatTimestamp renders seconds as H:MM:SS.cc, flooring to hundredths.
func FormatTimestamp(seconds float64) string {
	cs := Centiseconds(seconds)
	hours := cs / 360000
	cs -= hours * 360000
	minutes := cs / 6000
	cs -= minutes * 6000
	secs := cs / 100
	cs -= secs * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, cs)
}

// LineBreak is the renderer's hard line break token.
const LineBreak = `\N`

// wordJoiner follows every literal backslash so sequences like \N or \h in
// transcript text render as typed instead of as override codes.
const wordJoiner = "\u2060"

var overrideEscaper = strings.NewReplacer(
	`\`, `\`+wordJoiner,
	"{", `\{`,
	"}", `\}`,
)

// NormalizeText composes text to NFC, joins its non-empty lines with
// LineBreak and escapes braces and backslashes so transcript text cannot
// open override blocks or inject override codes.
func NormalizeText(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, overrideEscaper.Replace(line))
	}
	return strings.Join(kept, LineBreak)
}
