package job

import (
	"time"

	"quotereel/internal/services"
)

// Status represents the lifecycle of a render job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Stage labels persisted in Job.Stage.
const (
	StageQueued     = "queued"
	StageStarting   = "starting"
	StageAssembling = "assembling"
	StageDone       = "done"
	StageFailed     = "failed"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "daemon stopped"

// IsTerminal reports whether the status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Job is the persisted record for one render request.
type Job struct {
	ID          string                 `json:"job_id"`
	Status      Status                 `json:"status"`
	SceneCount  int                    `json:"scenes_count"`
	Label       string                 `json:"label,omitempty"`
	OutputName  string                 `json:"output_name"`
	Stage       string                 `json:"current_stage"`
	Progress    int                    `json:"progress"`
	Error       *services.ErrorDetails `json:"error,omitempty"`
	Result      *Result                `json:"result,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Result describes the artifact of a completed job.
type Result struct {
	Filename        string  `json:"filename"`
	Path            string  `json:"path"`
	SizeBytes       int64   `json:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Scenes          int     `json:"scenes"`
}

// New builds a pending job record.
func New(id string, sceneCount int, label, outputName string, now time.Time) Job {
	now = now.UTC()
	return Job{
		ID:         id,
		Status:     StatusPending,
		SceneCount: sceneCount,
		Label:      label,
		OutputName: outputName,
		Stage:      StageQueued,
		Progress:   0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
