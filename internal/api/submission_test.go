package api_test

import (
	"errors"
	"path/filepath"
	"testing"

	"quotereel/internal/api"
	"quotereel/internal/services"
	"quotereel/internal/testsupport"
)

func TestLoadSubmissionYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reel.yaml")
	testsupport.WriteText(t, path, `scenes:
  - narration: "하루를 시작하며"
    image_prompt: "sunrise over mountains"
    quote: "Begin."
    overrides:
      subtitle_font_size: 40
options:
  label: stoic mornings
  width: 1080
  height: 1920
  background_music: calm.mp3
`)
	req, err := api.LoadSubmission(path)
	if err != nil {
		t.Fatalf("LoadSubmission failed: %v", err)
	}
	if len(req.Scenes) != 1 || req.Scenes[0].Quote != "Begin." {
		t.Fatalf("unexpected scenes %+v", req.Scenes)
	}
	if size := req.Scenes[0].Overrides.SubtitleFontSize; size == nil || *size != 40 {
		t.Fatalf("expected subtitle override 40, got %v", size)
	}
	if req.Options.Label != "stoic mornings" || req.Options.BackgroundMusic != "calm.mp3" {
		t.Fatalf("unexpected options %+v", req.Options)
	}
	if req.Options.Width == nil || *req.Options.Width != 1080 {
		t.Fatalf("expected width 1080, got %v", req.Options.Width)
	}
}

func TestLoadSubmissionJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reel.json")
	testsupport.WriteText(t, path, `{"scenes":[{"narration":"a","image_prompt":"b"}],"options":{"global_prompt":"film grain"}}`)
	req, err := api.LoadSubmission(path)
	if err != nil {
		t.Fatalf("LoadSubmission failed: %v", err)
	}
	if req.Options.GlobalPrompt != "film grain" {
		t.Fatalf("unexpected options %+v", req.Options)
	}
}

func TestLoadSubmissionRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown.json": `{"scenes":[{"narration":"a","image_prompt":"b","colour":"red"}]}`,
		"empty.yaml":   "scenes: []\n",
		"broken.yml":   "scenes: [\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		testsupport.WriteText(t, path, body)
		if _, err := api.LoadSubmission(path); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("%s: expected configuration error, got %v", name, err)
		}
	}
}
