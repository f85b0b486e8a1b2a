package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const filePrefix = "spawnwatch_"

// Archive stores catalog snapshots as timestamped JSON files in a single
// directory. Writes are atomic via temp file + rename, so a crashed backup
// never leaves a half-written snapshot behind.
type Archive struct {
	dir   string
	keep  int
	nowFn func() time.Time
}

// NewArchive creates an archive rooted at dir, retaining at most keep
// snapshots (0 means unlimited).
func NewArchive(dir string, keep int) *Archive {
	return &Archive{dir: dir, keep: keep, nowFn: time.Now}
}

// Write stores a snapshot and prunes old ones past the retention cap.
// Returns the path of the written file.
func (a *Archive) Write(snapshot []byte) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory %s: %w", a.dir, err)
	}

	name := filePrefix + a.nowFn().UTC().Format("20060102_150405") + ".json"
	fullPath := filepath.Join(a.dir, name)

	tempFile, err := os.CreateTemp(a.dir, "temp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tempFile.Write(snapshot); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempFile.Name(), fullPath); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to rename temp file to %s: %w", fullPath, err)
	}

	if err := a.prune(); err != nil {
		return fullPath, err
	}
	return fullPath, nil
}

// List returns the archived snapshot filenames, oldest first.
func (a *Archive) List() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list archive %s: %w", a.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	// Timestamped names sort chronologically.
	sort.Strings(names)
	return names, nil
}

// Latest returns the newest archived snapshot.
func (a *Archive) Latest() ([]byte, error) {
	names, err := a.List()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("archive %s is empty", a.dir)
	}
	raw, err := os.ReadFile(filepath.Join(a.dir, names[len(names)-1]))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return raw, nil
}

// prune removes the oldest snapshots beyond the retention cap.
func (a *Archive) prune() error {
	if a.keep <= 0 {
		return nil
	}
	names, err := a.List()
	if err != nil {
		return err
	}
	for len(names) > a.keep {
		if err := os.Remove(filepath.Join(a.dir, names[0])); err != nil {
			return fmt.Errorf("failed to prune snapshot %s: %w", names[0], err)
		}
		names = names[1:]
	}
	return nil
}
