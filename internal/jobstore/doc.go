// Package jobstore persists job records behind a small key-value contract.
//
// Every backend stores one independently addressable record per job and
// replaces it atomically, so a concurrent reader never sees a partial write:
//   - memory: a mutex-guarded map, used by tests and `store.backend = "memory"`
//   - file: one JSON document per job, written to a temp file and renamed into
//     place under a per-record flock
//   - sqlite: one row per job holding the JSON record, updated in a transaction
//   - redis: one key per job plus a sorted index by modification time, updated
//     with optimistic WATCH/MULTI transactions
//
// Update applies a job.Patch through job.Job.Apply inside the backend's atomic
// section, so status transition rules are enforced at the storage boundary.
// Failures are tagged with services.ErrStorage; unknown ids with
// services.ErrNotFound.
package jobstore
