package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"quotereel/internal/config"
	"quotereel/internal/job"
	"quotereel/internal/services"
)

// Store is the durable job record contract.
type Store interface {
	// Create persists a new record and returns its id. Colliding ids fail.
	Create(ctx context.Context, j job.Job) (string, error)
	// Update applies patch atomically and returns the stored result.
	Update(ctx context.Context, id string, patch job.Patch) (job.Job, error)
	// Get returns the record for id.
	Get(ctx context.Context, id string) (job.Job, error)
	// List returns up to limit records, most recently modified first. A
	// non-positive limit returns every record.
	List(ctx context.Context, limit int) ([]job.Job, error)
	// Backend names the implementation for health reporting.
	Backend() string
	Close() error
}

// Clock returns the current time; overridable in tests.
type Clock func() time.Time

// Open constructs the backend selected by cfg.Store.Backend.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return NewMemory(), nil
	case config.StoreFile, "":
		return OpenFile(cfg.Store.Dir)
	case config.StoreSQLite:
		return OpenSQLite(cfg.Store.SQLitePath)
	case config.StoreRedis:
		return OpenRedis(RedisOptions{
			Addr:   cfg.Store.RedisAddr,
			DB:     cfg.Store.RedisDB,
			Prefix: cfg.Store.RedisPrefix,
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", fmt.Sprintf("unsupported backend %q", cfg.Store.Backend), nil)
	}
}

func storageErr(operation, id string, err error) error {
	msg := ""
	if id != "" {
		msg = "job " + id
	}
	return services.Wrap(services.ErrStorage, "store", operation, msg, err)
}

func notFound(id string) error {
	return services.Wrap(services.ErrNotFound, "store", "lookup", "job "+id, nil)
}

var errCollision = errors.New("job id already exists")

// applyPatch runs the state machine and tags rule violations as storage-level
// rejections the orchestrator can distinguish from I/O failures.
func applyPatch(current job.Job, patch job.Patch, now time.Time) (job.Job, error) {
	next, err := current.Apply(patch, now)
	if err != nil {
		return current, services.Wrap(services.ErrValidation, "store", "update", "job "+current.ID, err)
	}
	return next, nil
}

func encodeJob(j job.Job) ([]byte, error) {
	return json.MarshalIndent(j, "", "  ")
}

func decodeJob(data []byte) (job.Job, error) {
	var j job.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return job.Job{}, fmt.Errorf("decode job record: %w", err)
	}
	return j, nil
}

// sortRecent orders jobs most recently modified first, newest creation and
// then id breaking ties so output is stable.
func sortRecent(jobs []job.Job) {
	sort.SliceStable(jobs, func(i, k int) bool {
		if !jobs[i].UpdatedAt.Equal(jobs[k].UpdatedAt) {
			return jobs[i].UpdatedAt.After(jobs[k].UpdatedAt)
		}
		if !jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
		}
		return jobs[i].ID < jobs[k].ID
	})
}

func truncate(jobs []job.Job, limit int) []job.Job {
	if limit > 0 && len(jobs) > limit {
		return jobs[:limit]
	}
	return jobs
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
