package job_test

import (
	"errors"
	"testing"
	"time"

	"quotereel/internal/job"
	"quotereel/internal/services"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to job.Status
		want     bool
	}{
		{job.StatusPending, job.StatusProcessing, true},
		{job.StatusPending, job.StatusFailed, true},
		{job.StatusPending, job.StatusCompleted, false},
		{job.StatusProcessing, job.StatusCompleted, true},
		{job.StatusProcessing, job.StatusFailed, true},
		{job.StatusProcessing, job.StatusPending, false},
		{job.StatusProcessing, job.StatusProcessing, true},
		{job.StatusCompleted, job.StatusFailed, false},
		{job.StatusCompleted, job.StatusCompleted, false},
		{job.StatusFailed, job.StatusProcessing, false},
	}
	for _, tc := range cases {
		if got := job.CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestApplyLifecycle(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	j := job.New("abc", 2, "demo", "demo.mp4", now)
	if j.Status != job.StatusPending || j.Stage != job.StageQueued || j.Progress != 0 {
		t.Fatalf("unexpected initial job: %+v", j)
	}

	j, err := j.Apply(job.Patch{
		Status:    job.Ptr(job.StatusProcessing),
		Stage:     job.Ptr(job.StageStarting),
		Progress:  job.Ptr(job.ProgressStarting),
		StartedAt: job.Ptr(now),
	}, now.Add(time.Second))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if j.StartedAt == nil || j.Progress != 5 || !j.UpdatedAt.Equal(now.Add(time.Second)) {
		t.Fatalf("unexpected processing job: %+v", j)
	}

	result := &job.Result{Filename: "demo.mp4", SizeBytes: 10}
	j, err = j.Apply(job.Patch{
		Status:      job.Ptr(job.StatusCompleted),
		Progress:    job.Ptr(job.ProgressDone),
		Stage:       job.Ptr(job.StageDone),
		Result:      result,
		CompletedAt: job.Ptr(now),
	}, now.Add(2*time.Second))
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if j.Result == nil || j.Result.Filename != "demo.mp4" || j.Progress != 100 {
		t.Fatalf("unexpected completed job: %+v", j)
	}

	if _, err := j.Apply(job.Patch{Status: job.Ptr(job.StatusFailed)}, now); !errors.Is(err, job.ErrInvalidTransition) {
		t.Fatalf("expected terminal job to reject patch, got %v", err)
	}
}

func TestApplyProgressNeverDecreases(t *testing.T) {
	now := time.Now()
	j := job.New("p", 1, "", "out.mp4", now)
	j, _ = j.Apply(job.Patch{Status: job.Ptr(job.StatusProcessing), Progress: job.Ptr(40)}, now)
	j, err := j.Apply(job.Patch{Progress: job.Ptr(25)}, now)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if j.Progress != 40 {
		t.Fatalf("progress went backwards: %d", j.Progress)
	}
	j, _ = j.Apply(job.Patch{Progress: job.Ptr(250)}, now)
	if j.Progress != 100 {
		t.Fatalf("expected clamp to 100, got %d", j.Progress)
	}
}

func TestApplyRejectsErrorOnActiveJob(t *testing.T) {
	j := job.New("e", 1, "", "out.mp4", time.Now())
	_, err := j.Apply(job.Patch{Error: &services.ErrorDetails{Message: "boom"}}, time.Now())
	if !errors.Is(err, job.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestApplyFailureClearsResult(t *testing.T) {
	now := time.Now()
	j := job.New("f", 1, "", "out.mp4", now)
	j, _ = j.Apply(job.Patch{Status: job.Ptr(job.StatusProcessing)}, now)
	j, err := j.Apply(job.Patch{
		Status: job.Ptr(job.StatusFailed),
		Stage:  job.Ptr(job.StageFailed),
		Error:  &services.ErrorDetails{Kind: services.KindStage, Message: "ffmpeg exited 1"},
	}, now)
	if err != nil {
		t.Fatalf("fail transition failed: %v", err)
	}
	if j.Error == nil || j.Result != nil || j.Stage != job.StageFailed {
		t.Fatalf("unexpected failed job: %+v", j)
	}
}

func TestPatchMerge(t *testing.T) {
	base := job.Patch{Stage: job.Ptr("scene 1/2: image"), Progress: job.Ptr(21)}
	merged := base.Merge(job.Patch{Progress: job.Ptr(30)})
	if *merged.Stage != "scene 1/2: image" || *merged.Progress != 30 {
		t.Fatalf("unexpected merge: stage=%v progress=%v", *merged.Stage, *merged.Progress)
	}
	if !(job.Patch{}).Empty() || merged.Empty() {
		t.Fatal("Empty reported incorrectly")
	}
}
