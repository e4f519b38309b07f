package subtitles

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quotereel/internal/scene"
	"quotereel/internal/services"
)

func TestFormatTimestampFloorsToHundredths(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{-1, "0:00:00.00"},
		{0.999, "0:00:00.99"},
		{1.005, "0:00:01.00"},
		{61.23, "0:01:01.23"},
		{61.237, "0:01:01.23"},
		{63.5, "0:01:03.50"},
		{3599.999, "0:59:59.99"},
		{3661.1, "1:01:01.10"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", "hello"},
		{"  line one \n\n line two\r\n", `line one\Nline two`},
		{"{\\b1}bold", "\\{\\\u2060b1\\}bold"},
		{`path C:\new\Nfolder {x}`, "path C:\\\u2060new\\\u2060Nfolder \\{x\\}"},
		{" \n ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnchorFor(t *testing.T) {
	tests := []struct {
		position string
		want     Anchor
	}{
		{scene.PositionTop, Anchor{Alignment: 8, MarginV: 50}},
		{scene.PositionCenter, Anchor{Alignment: 5, MarginV: 0}},
		{scene.PositionBottom, Anchor{Alignment: 2, MarginV: 50}},
	}
	for _, tt := range tests {
		got, err := AnchorFor(tt.position)
		if err != nil {
			t.Fatalf("AnchorFor(%q) failed: %v", tt.position, err)
		}
		if got != tt.want {
			t.Fatalf("AnchorFor(%q) = %+v, want %+v", tt.position, got, tt.want)
		}
	}

	for _, bad := range []string{"", "middle", "Bottom"} {
		if _, err := AnchorFor(bad); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("AnchorFor(%q) expected configuration error, got %v", bad, err)
		}
	}
}

func TestConvertPreservesOrderAndOverlap(t *testing.T) {
	cfg := scene.DefaultRenderConfig()
	segments := []Segment{
		{Start: 61.237, End: 63.5, Text: "first"},
		{Start: 62.0, End: 64.0, Text: "overlapping\nsecond"},
		{Start: 10, End: 11, Text: "earlier but later in input"},
		{Start: 64, End: 65, Text: "   "},
	}
	timeline, err := Convert(segments, cfg)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(timeline.Cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(timeline.Cues))
	}
	if timeline.Cues[0].Start != "0:01:01.23" || timeline.Cues[0].End != "0:01:03.50" {
		t.Fatalf("unexpected first cue timing: %+v", timeline.Cues[0])
	}
	if timeline.Cues[1].Text != `overlapping\Nsecond` {
		t.Fatalf("unexpected second cue text %q", timeline.Cues[1].Text)
	}
	if timeline.Cues[2].Start != "0:00:10.00" {
		t.Fatalf("input order not preserved: %+v", timeline.Cues)
	}
	if timeline.Style.FontName != "KOTRA_BOLD" {
		t.Fatalf("font name = %q", timeline.Style.FontName)
	}
	if timeline.Style.Anchor.Alignment != 2 {
		t.Fatalf("expected bottom alignment, got %d", timeline.Style.Anchor.Alignment)
	}
}

func TestConvertRejectsInvalidInput(t *testing.T) {
	cfg := scene.DefaultRenderConfig()
	cfg.SubtitlePosition = "left"
	if _, err := Convert(nil, cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for position, got %v", err)
	}

	cfg = scene.DefaultRenderConfig()
	_, err := Convert([]Segment{{Start: 2, End: 1, Text: "x"}}, cfg)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for reversed segment, got %v", err)
	}
	_, err = Convert([]Segment{{Start: -1, End: 1, Text: "x"}}, cfg)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for negative segment, got %v", err)
	}
}

func TestASSDocument(t *testing.T) {
	cfg := scene.DefaultRenderConfig()
	cfg.SubtitleColor = "#112233"
	cfg.SubtitleOutlineColor = "black"
	cfg.SubtitlePosition = scene.PositionTop
	timeline, err := Convert([]Segment{{Start: 0, End: 1.5, Text: "안녕하세요"}}, cfg)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	doc := string(timeline.ASS())
	for _, want := range []string{
		"PlayResX: 1080\n",
		"PlayResY: 1920\n",
		"Style: Default,KOTRA_BOLD,48,&H00332211,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,0,8,10,10,50,1\n",
		"Dialogue: 0,0:00:00.00,0:00:01.50,Default,,0,0,0,,안녕하세요\n",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q:\n%s", want, doc)
		}
	}

	path := filepath.Join(t.TempDir(), "scene.ass")
	if err := timeline.WriteASS(path); err != nil {
		t.Fatalf("WriteASS failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != doc {
		t.Fatal("written document differs from rendered document")
	}
}
