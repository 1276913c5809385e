// Package store manages the on-disk lifecycle of produced files: directory
// preparation, per-job naming, existence checks and age-based listing for
// eviction. Files are keyed by job id; the user-facing filename lives on
// the job record, not on disk.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry describes one stored file for the sweeper.
type Entry struct {
	JobID   string
	Path    string
	ModTime time.Time
}

// Store owns the download and temp directories.
type Store struct {
	dir     string
	tempDir string
}

// New creates the directories if missing and returns the store.
func New(dir, tempDir string) (*Store, error) {
	for _, d := range []string{dir, tempDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	return &Store{dir: dir, tempDir: tempDir}, nil
}

// Dir returns the directory holding finished files.
func (s *Store) Dir() string {
	return s.dir
}

// TempDir returns the scratch directory for in-flight downloads.
func (s *Store) TempDir() string {
	return s.tempDir
}

// Place moves a produced file into the store under the job id, keeping the
// source extension. Falls back to copy when rename crosses filesystems.
func (s *Store) Place(jobID, srcPath string) (string, error) {
	dst := filepath.Join(s.dir, jobID+filepath.Ext(srcPath))
	if err := os.Rename(srcPath, dst); err != nil {
		if err := copyFile(srcPath, dst); err != nil {
			return "", fmt.Errorf("placing file for job %s: %w", jobID, err)
		}
		os.Remove(srcPath)
	}
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		return "", fmt.Errorf("produced file is missing or empty: %s", dst)
	}
	return dst, nil
}

// Path returns the stored file for a job id, or false if it is gone
// (never written, or already swept).
func (s *Store) Path(jobID string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.dir, jobID+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// Remove deletes the stored file for a job id. Idempotent: a missing file
// is not an error.
func (s *Store) Remove(jobID string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, jobID+".*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// ListOlderThan returns entries in the download directory modified before
// the cutoff. Used by the sweeper to evict expired and orphaned files.
func (s *Store) ListOlderThan(cutoff time.Time) []Entry {
	var out []Entry
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			name := e.Name()
			jobID := strings.TrimSuffix(name, filepath.Ext(name))
			out = append(out, Entry{
				JobID:   jobID,
				Path:    filepath.Join(s.dir, name),
				ModTime: info.ModTime(),
			})
		}
	}
	return out
}

// SweepTemp removes scratch files older than the cutoff. Best-effort:
// returns the number of files removed.
func (s *Store) SweepTemp(cutoff time.Time) int {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(s.tempDir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}

// SanitizeFilename strips characters that break filesystems or
// Content-Disposition headers and caps the length.
func SanitizeFilename(name string) string {
	safe := strings.ReplaceAll(name, " ", "_")
	safe = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, safe)
	if len(safe) > 150 {
		safe = safe[:150]
	}
	return safe
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
