package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"quotereel/internal/api"
	"quotereel/internal/config"
	"quotereel/internal/job"
	"quotereel/internal/scene"
	"quotereel/internal/services"
	"quotereel/internal/testsupport"
)

func oneScene() api.SubmitRequest {
	return api.SubmitRequest{
		Scenes:  []scene.Scene{{Narration: "A", ImagePrompt: "a quiet harbour"}},
		Options: scene.JobOptions{Label: "harbour"},
	}
}

func TestAPISubmitFollowAndDownload(t *testing.T) {
	td := newTestDaemon(t, nil)
	srv := td.serve(t)
	client := td.client(srv)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accepted, err := client.Submit(ctx, oneScene())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if accepted.JobID == "" || !strings.HasPrefix(accepted.OutputName, "harbour_") {
		t.Fatalf("unexpected submit response %+v", accepted)
	}

	var events []string
	final, err := client.Follow(ctx, accepted.JobID, func(event string, record job.Job) {
		events = append(events, event)
	})
	if err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if final.Status != job.StatusCompleted || final.Result == nil {
		t.Fatalf("expected completed job, got %+v", final)
	}
	if len(events) == 0 || events[len(events)-1] != api.EventCompleted {
		t.Fatalf("expected stream to end with completed, got %v", events)
	}

	fetched, err := client.Get(ctx, accepted.JobID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.OutputName != accepted.OutputName || fetched.Progress != 100 {
		t.Fatalf("unexpected fetched job %+v", fetched)
	}

	jobs, err := client.List(ctx, 5)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != accepted.JobID {
		t.Fatalf("unexpected job list %+v", jobs)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/videos/"+final.Result.Filename, nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Range", "bytes=0-99")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("video request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", resp.StatusCode)
	}
	if len(body) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(body))
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes 0-99/4096" {
		t.Fatalf("unexpected Content-Range %q", got)
	}
}

func TestAPISubmitRejectsInvalidRequests(t *testing.T) {
	td := newTestDaemon(t, nil)
	srv := td.serve(t)

	tests := map[string]string{
		"no scenes":     `{"scenes":[]}`,
		"malformed":     `{"scenes":`,
		"unknown field": `{"scenes":[{"narration":"a","image_prompt":"b"}],"priority":1}`,
		"bad width":     `{"scenes":[{"narration":"a","image_prompt":"b"}],"options":{"width":100}}`,
		"unknown bgm":   `{"scenes":[{"narration":"a","image_prompt":"b"}],"options":{"background_music":"nope.mp3"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/jobs", "application/json", bytes.NewBufferString(body))
			if err != nil {
				t.Fatalf("POST failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var payload api.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatalf("decode error body failed: %v", err)
			}
			if payload.Kind != services.KindConfig || payload.Error == "" {
				t.Fatalf("unexpected error body %+v", payload)
			}
		})
	}

	jobs, err := td.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("rejected submissions must not create jobs, got %d", len(jobs))
	}
}

func TestAPIUnknownJobIsNotFound(t *testing.T) {
	td := newTestDaemon(t, nil)
	srv := td.serve(t)
	client := td.client(srv)

	if _, err := client.Get(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found from Get, got %v", err)
	}
	if _, err := client.Follow(context.Background(), "missing", nil); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found from Follow, got %v", err)
	}
}

func TestAPIListRejectsBadLimit(t *testing.T) {
	td := newTestDaemon(t, nil)
	srv := td.serve(t)

	resp, err := http.Get(srv.URL + "/api/jobs?limit=abc")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAPIVideoRejectsTraversalAndUnknownFiles(t *testing.T) {
	td := newTestDaemon(t, nil)
	testsupport.WriteText(t, td.cfg.Paths.WorkDir+"/secret.mp4", "secret")
	testsupport.WriteFile(t, td.cfg.Paths.OutputDir+"/real.mp4", 32)
	srv := td.serve(t)

	for _, path := range []string{
		"/api/videos/..%2Fwork%2Fsecret.mp4",
		"/api/videos/.hidden.mp4",
		"/api/videos/missing.mp4",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("GET %s: expected 404, got %d", path, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/api/videos/real.mp4")
	if err != nil {
		t.Fatalf("GET real.mp4 failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.ContentLength != 32 {
		t.Fatalf("expected full 32-byte body, got %d (%d bytes)", resp.StatusCode, resp.ContentLength)
	}
}

func TestAPIListsVideos(t *testing.T) {
	td := newTestDaemon(t, nil)
	srv := td.serve(t)
	client := td.client(srv)

	videos, err := client.Videos(context.Background())
	if err != nil {
		t.Fatalf("Videos on empty output dir failed: %v", err)
	}
	if len(videos) != 0 {
		t.Fatalf("expected no videos, got %+v", videos)
	}

	testsupport.WriteFile(t, td.cfg.Paths.OutputDir+"/first.mp4", 10)
	testsupport.WriteFile(t, td.cfg.Paths.OutputDir+"/skip.txt", 10)
	videos, err = client.Videos(context.Background())
	if err != nil {
		t.Fatalf("Videos failed: %v", err)
	}
	if len(videos) != 1 || videos[0].Filename != "first.mp4" || videos[0].Size != 10 {
		t.Fatalf("unexpected videos: %+v", videos)
	}
}

func TestAPIVideoDownloadOutlivesWriteTimeout(t *testing.T) {
	td := newTestDaemon(t, nil)
	td.daemon.server.server.WriteTimeout = 100 * time.Millisecond
	const size = 16 << 20
	testsupport.WriteFile(t, td.cfg.Paths.OutputDir+"/long.mp4", size)
	if err := td.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	resp, err := http.Get("http://" + td.daemon.Addr() + "/api/videos/long.mp4")
	if err != nil {
		t.Fatalf("GET long.mp4 failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	buf := make([]byte, 256<<10)
	var read int64
	for {
		n, err := resp.Body.Read(buf)
		read += int64(n)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("download cut off after %d bytes: %v", read, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if read != size {
		t.Fatalf("read %d bytes, want %d", read, size)
	}
}

func TestAPITokenGuardsJobRoutes(t *testing.T) {
	td := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Server.APIToken = "s3cret"
	})
	srv := td.serve(t)

	if _, err := td.client(srv).List(context.Background(), 0); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if _, err := td.client(srv, api.WithToken("wrong")).List(context.Background(), 0); err == nil {
		t.Fatal("expected wrong token to be rejected")
	}
	if _, err := td.client(srv, api.WithToken("s3cret")).List(context.Background(), 0); err != nil {
		t.Fatalf("List with token failed: %v", err)
	}
	if _, err := td.client(srv).Health(context.Background()); err != nil {
		t.Fatalf("health must not require a token: %v", err)
	}
}

func TestHealthReportsStoreBackend(t *testing.T) {
	td := newTestDaemon(t, nil)
	if err := td.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	srv := td.serve(t)

	health, err := td.client(srv).Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Status != "ok" || health.StoreBackend != config.StoreMemory {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	td := newTestDaemon(t, nil)
	srv := td.serve(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected request id echo, got %q", got)
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
}
