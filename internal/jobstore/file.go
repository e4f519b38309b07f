package jobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"quotereel/internal/fileutil"
	"quotereel/internal/job"
	"quotereel/internal/services"
)

const recordExt = ".json"

// File stores one JSON document per job in a directory.
type File struct {
	dir   string
	mu    sync.Mutex
	clock Clock
}

// OpenFile prepares dir for job records.
func OpenFile(dir string) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, storageErr("open", "", errors.New("store directory is empty"))
	}
	if err := os.MkdirAll(filepath.Join(dir, ".locks"), 0o755); err != nil {
		return nil, storageErr("open", "", err)
	}
	return &File{dir: dir, clock: time.Now}, nil
}

func (f *File) Backend() string { return "file" }

func (f *File) recordPath(id string) (string, bool) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", false
	}
	return filepath.Join(f.dir, id+recordExt), true
}

// lock serializes read-modify-write cycles on one record, both within this
// process and across processes sharing the directory.
func (f *File) lock(ctx context.Context, id string) (func(), error) {
	lk := flock.New(filepath.Join(f.dir, ".locks", id+".lock"))
	ok, err := lk.TryLockContext(ensureContext(ctx), 5*time.Millisecond)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: not acquired", id)
	}
	return func() { _ = lk.Unlock() }, nil
}

func (f *File) Create(_ context.Context, j job.Job) (string, error) {
	path, ok := f.recordPath(j.ID)
	if !ok {
		return "", storageErr("create", j.ID, errors.New("invalid job id"))
	}
	data, err := encodeJob(j)
	if err != nil {
		return "", storageErr("create", j.ID, err)
	}
	if err := fileutil.CreateFileAtomic(path, data, 0o644); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", storageErr("create", j.ID, errCollision)
		}
		return "", storageErr("create", j.ID, err)
	}
	return j.ID, nil
}

func (f *File) Update(ctx context.Context, id string, patch job.Patch) (job.Job, error) {
	path, ok := f.recordPath(id)
	if !ok {
		return job.Job{}, notFound(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	unlock, err := f.lock(ctx, id)
	if err != nil {
		return job.Job{}, storageErr("update", id, err)
	}
	defer unlock()

	current, err := f.read(path, id)
	if err != nil {
		return job.Job{}, err
	}
	next, err := applyPatch(current, patch, f.clock())
	if err != nil {
		return current, err
	}
	data, err := encodeJob(next)
	if err != nil {
		return current, storageErr("update", id, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return current, storageErr("update", id, err)
	}
	return next, nil
}

func (f *File) Get(_ context.Context, id string) (job.Job, error) {
	path, ok := f.recordPath(id)
	if !ok {
		return job.Job{}, notFound(id)
	}
	return f.read(path, id)
}

func (f *File) read(path, id string) (job.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return job.Job{}, notFound(id)
		}
		return job.Job{}, storageErr("read", id, err)
	}
	j, err := decodeJob(data)
	if err != nil {
		return job.Job{}, storageErr("read", id, err)
	}
	return j, nil
}

func (f *File) List(_ context.Context, limit int) ([]job.Job, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, storageErr("list", "", err)
	}
	out := make([]job.Job, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
			continue
		}
		id := strings.TrimSuffix(name, recordExt)
		j, err := f.read(filepath.Join(f.dir, name), id)
		if err != nil {
			// a record deleted between ReadDir and read is not an error
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, j)
	}
	sortRecent(out)
	return truncate(out, limit), nil
}

func (f *File) Close() error { return nil }
