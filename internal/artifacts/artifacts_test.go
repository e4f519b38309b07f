package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"quotereel/internal/services"
)

var namePattern = regexp.MustCompile(`^[a-z0-9_-]+_\d{8}_\d{6}_[0-9a-z]{10}\.mp4$`)

func TestOutputNameShape(t *testing.T) {
	now := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	name, err := OutputName("Morning Motivation!", now)
	if err != nil {
		t.Fatalf("OutputName failed: %v", err)
	}
	if !strings.HasPrefix(name, "morning-motivation_20260504_030201_") {
		t.Fatalf("unexpected name %q", name)
	}
	if !namePattern.MatchString(name) {
		t.Fatalf("name %q does not match %s", name, namePattern)
	}
}

func TestStem(t *testing.T) {
	if got := Stem(""); got != DefaultStem {
		t.Fatalf("Stem(\"\") = %q", got)
	}
	if got := Stem("!!!"); got != DefaultStem {
		t.Fatalf("Stem(\"!!!\") = %q", got)
	}
	long := Stem(strings.Repeat("word ", 40))
	if len(long) > maxStemLength || strings.HasSuffix(long, "-") {
		t.Fatalf("long stem not trimmed: %q", long)
	}
	if got := Stem("../../etc/passwd"); strings.ContainsAny(got, "/.") {
		t.Fatalf("stem kept path characters: %q", got)
	}
}

func TestOutputNameConcurrentUniqueness(t *testing.T) {
	const count = 10000
	now := time.Now()
	names := make([]string, count)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name, err := OutputName("same label", now)
			if err != nil {
				t.Errorf("OutputName failed: %v", err)
				return
			}
			names[i] = name
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, count)
	for _, name := range names {
		seen[name] = struct{}{}
	}
	if len(seen) != count {
		t.Fatalf("expected %d unique names, got %d", count, len(seen))
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, err := Resolve(dir, "video.mp4")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if path != filepath.Join(dir, "video.mp4") {
		t.Fatalf("path = %q", path)
	}

	for _, name := range []string{"", "missing.mp4", "../video.mp4", "sub", "sub/video.mp4", ".hidden", ".."} {
		if _, err := Resolve(dir, name); !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("Resolve(%q) expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	files := map[string]time.Time{
		"old.mp4":   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		"new.mp4":   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		"notes.txt": time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		".part.mp4": time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for name, mod := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("data-"+name), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "dir.mp4"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "new.mp4" || entries[1].Name != "old.mp4" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Size != int64(len("data-new.mp4")) {
		t.Fatalf("size = %d", entries[0].Size)
	}

	missing, err := List(filepath.Join(dir, "absent"))
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected empty list for missing dir, got %v, %v", missing, err)
	}
}
