package api

import (
	"errors"
	"net/http"
	"time"

	"quotereel/internal/job"
	"quotereel/internal/services"
	"quotereel/internal/workflow"
)

// Server-sent event names used by the job status stream.
const (
	EventStatus    = "status"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// SubmitRequest is the POST /api/jobs body.
type SubmitRequest = workflow.Submission

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID      string `json:"job_id"`
	OutputName string `json:"output_name"`
}

// JobListResponse wraps a page of job records, most recently modified first.
type JobListResponse struct {
	Jobs []job.Job `json:"jobs"`
}

// Video describes one downloadable artifact.
type Video struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
}

// VideoListResponse lists output artifacts, newest first.
type VideoListResponse struct {
	Count  int     `json:"count"`
	Videos []Video `json:"videos"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Health reports daemon liveness.
type Health struct {
	Status        string `json:"status"`
	StoreBackend  string `json:"store_backend"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ActiveJobs    int    `json:"active_jobs"`
	LastError     string `json:"last_error,omitempty"`
}

// TerminalEvent names the final stream event for record.
func TerminalEvent(record job.Job) string {
	if record.Status == job.StatusFailed {
		return EventFailed
	}
	return EventCompleted
}

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrConfiguration), errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// markerFor is the inverse of HTTPStatus for client-side errors.
func markerFor(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return services.ErrConfiguration
	case http.StatusNotFound:
		return services.ErrNotFound
	case http.StatusServiceUnavailable:
		return services.ErrStorage
	default:
		return nil
	}
}
