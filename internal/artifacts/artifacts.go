// Package artifacts names and locates rendered output files.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"quotereel/internal/services"
)

const (
	// DefaultStem names outputs whose label slugs to nothing.
	DefaultStem = "quote_video"
	// VideoExt is the container extension of every final artifact.
	VideoExt = ".mp4"

	maxStemLength  = 48
	suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength   = 10
	timeLayout     = "20060102_150405"
)

// OutputName returns a collision-free file name for a render started at now.
// The random suffix, not the timestamp, guarantees uniqueness under
// concurrent creation.
func OutputName(label string, now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("generate output suffix: %w", err)
	}
	return fmt.Sprintf("%s_%s_%s%s", Stem(label), now.UTC().Format(timeLayout), suffix, VideoExt), nil
}

// Stem slugs label into a file name stem.
func Stem(label string) string {
	stem := slug.Make(strings.TrimSpace(label))
	if len(stem) > maxStemLength {
		stem = strings.TrimRight(stem[:maxStemLength], "-")
	}
	if stem == "" {
		return DefaultStem
	}
	return stem
}

// ValidName reports whether name is a plain file name with no path component.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}

// Resolve returns the path of the regular file name inside dir. Names that
// would escape dir and missing files are both reported as not found.
func Resolve(dir, name string) (string, error) {
	if !ValidName(name) {
		return "", services.Wrap(services.ErrNotFound, "artifacts", "resolve", "file "+name, nil)
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "artifacts", "resolve", "file "+name, nil)
		}
		return "", services.Wrap(services.ErrStorage, "artifacts", "resolve", "file "+name, err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrNotFound, "artifacts", "resolve", "file "+name, nil)
	}
	return path, nil
}

// Entry describes one published artifact.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// List returns the video artifacts in dir, newest first. A missing dir
// holds no artifacts.
func List(dir string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, services.Wrap(services.ErrStorage, "artifacts", "list", dir, err)
	}
	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		name := d.Name()
		if !d.Type().IsRegular() || !ValidName(name) || !strings.EqualFold(filepath.Ext(name), VideoExt) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		entries = append(entries, Entry{Name: name, Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
