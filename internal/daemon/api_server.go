package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quotereel/internal/api"
	"quotereel/internal/artifacts"
	"quotereel/internal/config"
	"quotereel/internal/logging"
	"quotereel/internal/services"
)

const (
	maxSubmitBody     = 4 << 20
	keepaliveInterval = 15 * time.Second
)

type apiServer struct {
	cfg    *config.Config
	logger *slog.Logger
	daemon *Daemon

	handler http.Handler
	server  *http.Server

	mu       sync.Mutex
	listener net.Listener
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	routes := http.NewServeMux()
	routes.HandleFunc("POST /api/jobs", srv.handleSubmit)
	routes.HandleFunc("GET /api/jobs", srv.handleList)
	routes.HandleFunc("GET /api/jobs/{id}", srv.handleGet)
	routes.HandleFunc("GET /api/jobs/{id}/events", srv.handleEvents)
	routes.HandleFunc("GET /api/videos", srv.handleVideos)
	routes.HandleFunc("GET /api/videos/{filename}", srv.handleVideo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.Handle("/api/", authMiddleware(cfg.Server.APIToken, routes))
	srv.handler = srv.withRequestID(mux)

	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start() error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return services.Wrap(services.ErrConfiguration, "daemon", "listen", "paths.api_bind is empty", nil)
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// withRequestID tags each request context with a correlation id, reusing the
// caller's X-Request-ID when present.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxSubmitBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, r, services.Wrap(services.ErrConfiguration, "submit", "decode", "invalid request body", err))
		return
	}
	record, err := s.daemon.manager.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{JobID: record.ID, OutputName: record.OutputName})
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "list", "parse limit", "limit must be a non-negative integer", nil))
			return
		}
		limit = parsed
	}
	jobs, err := s.daemon.manager.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobs})
}

func (s *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := s.daemon.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// handleEvents streams job changes as server-sent events until the job is
// terminal or the client goes away.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.daemon.manager.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, errors.New("streaming unsupported"))
		return
	}
	// The stream outlives the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, errs := s.daemon.manager.Watch(r.Context(), id, s.cfg.StreamPollInterval())
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case record, ok := <-updates:
			if !ok {
				select {
				case err := <-errs:
					logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "status stream ended early", "stream_failed",
						logging.String(logging.FieldJobID, id),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check the job store backend"),
					)
				default:
				}
				return
			}
			event := api.EventStatus
			if record.Status.IsTerminal() {
				event = api.TerminalEvent(record)
			}
			data, err := json.Marshal(record)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *apiServer) handleVideos(w http.ResponseWriter, r *http.Request) {
	entries, err := artifacts.List(s.cfg.Paths.OutputDir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := api.VideoListResponse{Count: len(entries), Videos: make([]api.Video, 0, len(entries))}
	for _, e := range entries {
		resp.Videos = append(resp.Videos, api.Video{Filename: e.Name, Size: e.Size, Created: e.ModTime.UTC()})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleVideo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	path, err := artifacts.Resolve(s.cfg.Paths.OutputDir, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	file, err := os.Open(path)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrNotFound, "artifacts", "open", "file "+name, nil))
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrStorage, "artifacts", "stat", "file "+name, err))
		return
	}
	// downloads are bounded by the client, not the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, name, info.ModTime(), file)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status()
	health := api.Health{
		Status:        "ok",
		StoreBackend:  status.Workflow.StoreBackend,
		UptimeSeconds: int64(status.Uptime / time.Second),
		ActiveJobs:    status.Workflow.ActiveJobs,
		LastError:     status.Workflow.LastError,
	}
	if !status.Running || !status.Workflow.Running {
		health.Status = "stopping"
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := api.HTTPStatus(err)
	kind := services.Kind(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error(), Kind: kind})
}
