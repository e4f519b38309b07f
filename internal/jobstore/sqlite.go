package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quotereel/internal/job"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	status TEXT NOT NULL,
	record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_updated ON jobs(updated_at DESC);
`

// SQLite persists records in a single table keyed by job id.
type SQLite struct {
	db    *sql.DB
	path  string
	clock Clock
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, storageErr("open", "", errors.New("sqlite path is empty"))
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, storageErr("open", "", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("open", "", fmt.Errorf("open sqlite db: %w", err))
	}
	// One connection keeps read-modify-write cycles serialized in-process;
	// busy retries cover other processes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, storageErr("open", "", fmt.Errorf("apply pragma %q: %w", pragma, execErr))
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, storageErr("open", "", fmt.Errorf("init schema: %w", err))
	}
	return &SQLite{db: db, path: path, clock: time.Now}, nil
}

func (s *SQLite) Backend() string { return "sqlite" }

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLite) Create(ctx context.Context, j job.Job) (string, error) {
	ctx = ensureContext(ctx)
	data, err := encodeJob(j)
	if err != nil {
		return "", storageErr("create", j.ID, err)
	}
	var affected int64
	err = retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			`INSERT INTO jobs (id, created_at, updated_at, status, record) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			j.ID, j.CreatedAt.UnixNano(), j.UpdatedAt.UnixNano(), string(j.Status), string(data))
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return "", storageErr("create", j.ID, err)
	}
	if affected == 0 {
		return "", storageErr("create", j.ID, errCollision)
	}
	return j.ID, nil
}

func (s *SQLite) Update(ctx context.Context, id string, patch job.Patch) (job.Job, error) {
	ctx = ensureContext(ctx)
	var (
		next     job.Job
		ruleErr  error
		previous job.Job
	)
	err := retryOnBusy(ctx, func() error {
		ruleErr = nil
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var raw string
		if err := tx.QueryRowContext(ctx, `SELECT record FROM jobs WHERE id = ?`, id).Scan(&raw); err != nil {
			return err
		}
		current, err := decodeJob([]byte(raw))
		if err != nil {
			return err
		}
		previous = current
		candidate, err := applyPatch(current, patch, s.clock())
		if err != nil {
			ruleErr = err
			return nil
		}
		data, err := encodeJob(candidate)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET updated_at = ?, status = ?, record = ? WHERE id = ?`,
			candidate.UpdatedAt.UnixNano(), string(candidate.Status), string(data), id); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		next = candidate
		return nil
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return job.Job{}, notFound(id)
	case err != nil:
		return previous, storageErr("update", id, err)
	case ruleErr != nil:
		return previous, ruleErr
	}
	return next, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (job.Job, error) {
	ctx = ensureContext(ctx)
	var raw string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT record FROM jobs WHERE id = ?`, id).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return job.Job{}, notFound(id)
	}
	if err != nil {
		return job.Job{}, storageErr("get", id, err)
	}
	j, err := decodeJob([]byte(raw))
	if err != nil {
		return job.Job{}, storageErr("get", id, err)
	}
	return j, nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]job.Job, error) {
	ctx = ensureContext(ctx)
	query := `SELECT record FROM jobs ORDER BY updated_at DESC, created_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	out := make([]job.Job, 0)
	err := retryOnBusy(ctx, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			j, err := decodeJob([]byte(raw))
			if err != nil {
				return err
			}
			out = append(out, j)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storageErr("list", "", err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
