package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"quotereel/internal/assembly"
	"quotereel/internal/job"
	"quotereel/internal/logging"
	"quotereel/internal/pipeline"
	"quotereel/internal/services"
)

var errDaemonStopped = errors.New(job.DaemonStopReason)

// WorkDir is the working area for job id.
func (m *Manager) WorkDir(id string) string {
	return filepath.Join(m.cfg.Paths.WorkDir, id)
}

// Run executes job id synchronously: setup, every scene in order, then final
// assembly. Any failure is recorded on the job and returned.
func (m *Manager) Run(ctx context.Context, id string, plan Plan) error {
	ctx = services.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, m.logger)
	started := m.now()

	if _, err := m.update(ctx, id, job.Patch{
		Status:    job.Ptr(job.StatusProcessing),
		Stage:     job.Ptr(job.StageStarting),
		Progress:  job.Ptr(job.ProgressStarting),
		StartedAt: &started,
	}); err != nil {
		logger.Error("failed to start job",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_start_failed"),
			logging.String(logging.FieldErrorHint, "check job store access"),
		)
		m.fail(ctx, id, job.StageStarting, err)
		return err
	}
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.Int("scenes", len(plan.Scenes)),
	)

	images, err := m.deps.Images.For(plan.Configs[0].ImageBackend, plan.Options.Flux2CURL)
	if err != nil {
		m.fail(ctx, id, job.StageStarting, err)
		return err
	}
	workDir := m.WorkDir(id)

	clips := make([]string, 0, len(plan.Scenes))
	for i, sc := range plan.Scenes {
		req := pipeline.Request{
			Scene:        sc,
			Index:        i + 1,
			Total:        len(plan.Scenes),
			Config:       plan.Configs[i],
			Images:       images,
			GlobalPrompt: plan.Options.GlobalPrompt,
			WorkDir:      workDir,
		}
		clip, stage, err := m.runScene(ctx, id, req)
		if err != nil {
			m.fail(ctx, id, stage, err)
			return err
		}
		clips = append(clips, clip)
	}

	if _, err := m.update(ctx, id, job.Patch{
		Stage:    job.Ptr(job.StageAssembling),
		Progress: job.Ptr(job.ProgressAssembling),
	}); err != nil {
		m.warnProgress(ctx, err)
	}
	record, err := m.store.Get(ctx, id)
	if err != nil {
		m.fail(ctx, id, job.StageAssembling, err)
		return err
	}
	stageCtx := services.WithStage(ctx, job.StageAssembling)
	output, err := m.deps.Assembler.Assemble(stageCtx, assembly.Assembly{
		Clips:   clips,
		BGM:     plan.BGM,
		Volume:  plan.BGMVolume,
		WorkDir: filepath.Join(workDir, "final"),
		Output:  filepath.Join(m.cfg.Paths.OutputDir, record.OutputName),
	})
	if err != nil {
		m.fail(ctx, id, job.StageAssembling, err)
		return err
	}

	result, err := m.describe(stageCtx, output, len(clips))
	if err != nil {
		m.fail(ctx, id, job.StageAssembling, err)
		return err
	}
	completed := m.now()
	done, err := m.update(ctx, id, job.Patch{
		Status:      job.Ptr(job.StatusCompleted),
		Stage:       job.Ptr(job.StageDone),
		Progress:    job.Ptr(job.ProgressDone),
		Result:      &result,
		CompletedAt: &completed,
	})
	if err != nil {
		logger.Error("failed to record job completion",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_complete_persist_failed"),
			logging.String(logging.FieldErrorHint, "check job store access"),
		)
		m.fail(ctx, id, job.StageAssembling, err)
		return err
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", result.Path),
		logging.Int64("size_bytes", result.SizeBytes),
		logging.Duration("job_duration", completed.Sub(started)),
	)
	m.notifyCompleted(ctx, done)
	return nil
}

// runScene processes one scene while persisting its progress events. It
// returns the clip and the last stage label observed.
func (m *Manager) runScene(ctx context.Context, id string, req pipeline.Request) (string, string, error) {
	ctx = services.WithStage(ctx, "scene")
	events := make(chan pipeline.Event, 4)
	type outcome struct {
		clip string
		err  error
	}
	result := make(chan outcome, 1)
	go func() {
		defer close(events)
		clip, err := m.deps.Scenes.Process(ctx, req, events)
		result <- outcome{clip: clip, err: err}
	}()

	stage := job.StageStarting
	for ev := range events {
		stage = ev.Stage
		if _, err := m.update(ctx, id, job.Patch{
			Stage:    job.Ptr(ev.Stage),
			Progress: job.Ptr(ev.Progress),
		}); err != nil {
			m.warnProgress(ctx, err)
		}
	}
	out := <-result
	return out.clip, stage, out.err
}

func (m *Manager) describe(ctx context.Context, output string, scenes int) (job.Result, error) {
	info, err := os.Stat(output)
	if err != nil {
		return job.Result{}, services.Wrap(services.ErrExternalTool, job.StageAssembling, "stat output", output, err)
	}
	result := job.Result{
		Filename:  filepath.Base(output),
		Path:      output,
		SizeBytes: info.Size(),
		Scenes:    scenes,
	}
	if m.deps.Prober != nil {
		if seconds, err := m.deps.Prober.Duration(ctx, output); err == nil {
			result.DurationSeconds = seconds
		} else {
			logging.WarnWithContext(logging.WithContext(ctx, m.logger), "could not probe final duration", "result_probe_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check ffprobe installation"),
			)
		}
	}
	return result, nil
}

// update persists patch. Store writes outlive the job context so shutdown
// can still record a terminal state.
func (m *Manager) update(ctx context.Context, id string, patch job.Patch) (job.Job, error) {
	return m.store.Update(context.WithoutCancel(ctx), id, patch)
}

// warnProgress logs a progress write failure. Progress is advisory, so the
// job keeps running and the next successful write catches the record up.
func (m *Manager) warnProgress(ctx context.Context, err error) {
	m.setLastError(err)
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "failed to persist job progress", "progress_persist_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check job store access"),
	)
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
