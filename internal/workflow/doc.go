// Package workflow owns the render job lifecycle.
//
// The Manager validates submissions, creates job records, and runs each job
// on its own goroutine: scenes are processed strictly in order through the
// scene pipeline, whose progress events are consumed here and persisted to
// the job store, then the clips are assembled into the final artifact. The
// first failing scene or assembly step fails the job; nothing is retried.
//
// Job records move pending -> processing -> completed|failed and never
// backwards. Stopping the manager cancels running jobs and records them as
// failed so no record is left processing.
package workflow
