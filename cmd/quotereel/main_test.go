package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"quotereel/internal/api"
	"quotereel/internal/job"
	"quotereel/internal/testsupport"
)

// stubDaemon serves a minimal job API backed by a map.
type stubDaemon struct {
	mu        sync.Mutex
	submitted []api.SubmitRequest
	jobs      map[string]job.Job
}

func newStubDaemon(t *testing.T) (*stubDaemon, *httptest.Server) {
	t.Helper()
	stub := &stubDaemon{jobs: map[string]job.Job{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		var req api.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		stub.mu.Lock()
		stub.submitted = append(stub.submitted, req)
		id := fmt.Sprintf("job-%d", len(stub.submitted))
		now := time.Now()
		record := job.New(id, len(req.Scenes), req.Options.Label, id+".mp4", now)
		record.Status = job.StatusCompleted
		record.Stage = job.StageDone
		record.Progress = 100
		record.Result = &job.Result{Filename: id + ".mp4", Path: "/out/" + id + ".mp4", SizeBytes: 2048, Scenes: len(req.Scenes)}
		stub.jobs[id] = record
		stub.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(api.SubmitResponse{JobID: id, OutputName: id + ".mp4"})
	})
	mux.HandleFunc("GET /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		resp := api.JobListResponse{}
		for _, record := range stub.jobs {
			resp.Jobs = append(resp.Jobs, record)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		record, ok := stub.jobs[r.PathValue("id")]
		stub.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "job not found", Kind: "not_found"})
			return
		}
		_ = json.NewEncoder(w).Encode(record)
	})
	mux.HandleFunc("GET /api/jobs/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		record := stub.jobs[r.PathValue("id")]
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "text/event-stream")
		running := record
		running.Status = job.StatusProcessing
		running.Stage = "scene 1/1: image"
		running.Progress = 20
		for _, step := range []struct {
			event  string
			record job.Job
		}{{api.EventStatus, running}, {api.TerminalEvent(record), record}} {
			data, _ := json.Marshal(step.record)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", step.event, data)
		}
	})
	mux.HandleFunc("GET /api/videos", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		resp := api.VideoListResponse{Videos: []api.Video{}}
		for _, record := range stub.jobs {
			if record.Result != nil {
				resp.Videos = append(resp.Videos, api.Video{Filename: record.Result.Filename, Size: record.Result.SizeBytes, Created: record.UpdatedAt})
			}
		}
		resp.Count = len(resp.Videos)
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return stub, srv
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeScenes(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reel.yaml")
	testsupport.WriteText(t, path, `scenes:
  - narration: "first"
    image_prompt: "a lighthouse"
  - narration: "second"
    image_prompt: "a harbour"
options:
  label: harbour
`)
	return path
}

func configFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.toml")
}

func TestSubmitWaitFollowsToCompletion(t *testing.T) {
	stub, srv := newStubDaemon(t)
	out, err := runCLI(t, "--config", configFile(t), "--addr", srv.URL, "submit", writeScenes(t), "--wait")
	if err != nil {
		t.Fatalf("submit failed: %v\n%s", err, out)
	}
	if len(stub.submitted) != 1 || len(stub.submitted[0].Scenes) != 2 {
		t.Fatalf("unexpected submissions %+v", stub.submitted)
	}
	for _, want := range []string{"job-1", " 20%  scene 1/1: image", "completed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSubmitWithoutWaitPrintsJobID(t *testing.T) {
	_, srv := newStubDaemon(t)
	out, err := runCLI(t, "--config", configFile(t), "--addr", srv.URL, "submit", writeScenes(t), "--json")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	var resp api.SubmitResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output failed: %v\n%s", err, out)
	}
	if resp.JobID != "job-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestStatusAndList(t *testing.T) {
	_, srv := newStubDaemon(t)
	cfgPath := configFile(t)
	if _, err := runCLI(t, "--config", cfgPath, "--addr", srv.URL, "submit", writeScenes(t)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	out, err := runCLI(t, "--config", cfgPath, "--addr", srv.URL, "status", "job-1")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "/out/job-1.mp4") || !strings.Contains(out, "2.0 KiB") {
		t.Fatalf("unexpected status output:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfgPath, "--addr", srv.URL, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "job-1") || !strings.Contains(out, "100%") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	if _, err := runCLI(t, "--config", cfgPath, "--addr", srv.URL, "status", "nope"); err == nil {
		t.Fatal("expected unknown job to fail")
	}
}

func TestVideosListsArtifacts(t *testing.T) {
	_, srv := newStubDaemon(t)
	cfgPath := configFile(t)

	out, err := runCLI(t, "--config", cfgPath, "--addr", srv.URL, "videos")
	if err != nil {
		t.Fatalf("videos failed: %v", err)
	}
	if !strings.Contains(out, "No videos") {
		t.Fatalf("expected empty listing, got:\n%s", out)
	}

	if _, err := runCLI(t, "--config", cfgPath, "--addr", srv.URL, "submit", writeScenes(t)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	out, err = runCLI(t, "--config", cfgPath, "--addr", srv.URL, "videos")
	if err != nil {
		t.Fatalf("videos failed: %v", err)
	}
	for _, want := range []string{"File", "job-1.mp4", "2.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in videos output:\n%s", want, out)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cfg", "config.toml")
	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected output to mention %s, got %s", target, out)
	}
	if info, err := os.Stat(target); err != nil || info.Size() == 0 {
		t.Fatalf("sample config missing: %v", err)
	}
	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, err := runCLI(t, "config", "validate", "--config", target); err != nil {
		t.Fatalf("sample config must validate: %v", err)
	}
}

func TestDialAddress(t *testing.T) {
	tests := map[string]string{
		"0.0.0.0:8080":   "127.0.0.1:8080",
		":9000":          "127.0.0.1:9000",
		"10.0.0.5:8080":  "10.0.0.5:8080",
		"[::]:7000":      "127.0.0.1:7000",
		"not-an-address": "not-an-address",
	}
	for in, want := range tests {
		if got := dialAddress(in); got != want {
			t.Fatalf("dialAddress(%q) = %q, want %q", in, got, want)
		}
	}
}
