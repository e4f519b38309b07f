package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quotereel/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFonts(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "A.otf"), 8)

	if result := CheckFonts(dir, []string{"A.otf"}); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	result := CheckFonts(dir, []string{"A.otf", "B.otf"})
	if result.Passed || result.Detail != "missing B.otf" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckHTTP(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	if result := CheckHTTP(context.Background(), "ok", healthy.URL); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if result := CheckHTTP(context.Background(), "bad", broken.URL); result.Passed || !strings.Contains(result.Detail, "502") {
		t.Fatalf("expected 502 failure, got %+v", result)
	}
}

func TestCheckSecret(t *testing.T) {
	if CheckSecret("k", "", false).Passed {
		t.Fatal("required secret must fail when empty")
	}
	if !CheckSecret("k", "", true).Passed {
		t.Fatal("optional secret must pass when empty")
	}
	if !CheckSecret("k", "abc", false).Passed {
		t.Fatal("configured secret must pass")
	}
}

func TestRunAllReportsConfiguredChecks(t *testing.T) {
	comfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/system_stats" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer comfy.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithDefaultFonts())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	cfg.Image.ComfyUIURL = comfy.URL
	cfg.TTS.APIKey = "key"

	results := RunAll(context.Background(), cfg)
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Work directory", "Output directory", "Font directory", "Default fonts", "Job store (memory)", "ComfyUI", "ElevenLabs API key"} {
		r, ok := byName[name]
		if !ok {
			t.Fatalf("missing check %q in %+v", name, results)
		}
		if !r.Passed {
			t.Fatalf("check %q failed: %s", name, r.Detail)
		}
	}
	if _, ok := byName["flux2c-api"]; ok {
		t.Fatal("flux2c check must be skipped when no url is configured")
	}
}
