package job

import (
	"errors"
	"fmt"
	"time"

	"quotereel/internal/services"
)

// ErrInvalidTransition is returned when a patch would move a job backwards or
// out of a terminal state.
var ErrInvalidTransition = errors.New("invalid job status transition")

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Status      *Status
	Stage       *string
	Progress    *int
	Error       *services.ErrorDetails
	Result      *Result
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.Stage == nil && p.Progress == nil && p.Error == nil &&
		p.Result == nil && p.StartedAt == nil && p.CompletedAt == nil
}

// Merge folds next on top of p; fields set in next win.
func (p Patch) Merge(next Patch) Patch {
	out := p
	if next.Status != nil {
		out.Status = next.Status
	}
	if next.Stage != nil {
		out.Stage = next.Stage
	}
	if next.Progress != nil {
		out.Progress = next.Progress
	}
	if next.Error != nil {
		out.Error = next.Error
	}
	if next.Result != nil {
		out.Result = next.Result
	}
	if next.StartedAt != nil {
		out.StartedAt = next.StartedAt
	}
	if next.CompletedAt != nil {
		out.CompletedAt = next.CompletedAt
	}
	return out
}

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether from -> to is permitted. Staying in the same
// non-terminal state is allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return !from.IsTerminal()
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Apply returns a copy of j with p applied. Progress never decreases and is
// clamped to 0..100. Terminal jobs reject every patch.
func (j Job) Apply(p Patch, now time.Time) (Job, error) {
	if j.Status.IsTerminal() {
		return j, fmt.Errorf("%w: job %s is already %s", ErrInvalidTransition, j.ID, j.Status)
	}
	out := j
	if p.Status != nil {
		if !p.Status.Valid() {
			return j, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, *p.Status)
		}
		if !CanTransition(j.Status, *p.Status) {
			return j, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, *p.Status)
		}
		out.Status = *p.Status
	}
	if p.Stage != nil {
		out.Stage = *p.Stage
	}
	if p.Progress != nil {
		progress := clampPercent(*p.Progress)
		if progress > out.Progress {
			out.Progress = progress
		}
	}
	if p.StartedAt != nil {
		started := p.StartedAt.UTC()
		out.StartedAt = &started
	}
	if p.CompletedAt != nil {
		completed := p.CompletedAt.UTC()
		out.CompletedAt = &completed
	}
	switch out.Status {
	case StatusCompleted:
		out.Result = p.Result
		out.Error = nil
	case StatusFailed:
		out.Error = p.Error
		out.Result = nil
	default:
		if p.Error != nil || p.Result != nil {
			return j, fmt.Errorf("%w: result and error are only recorded on terminal jobs", ErrInvalidTransition)
		}
	}
	out.UpdatedAt = now.UTC()
	return out, nil
}

func clampPercent(value int) int {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }
