// Package watch polls a file and reports when it has been rewritten.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileWatcher detects modification-time changes of a single file.
type FileWatcher struct {
	path     string
	interval time.Duration
	baseline time.Time
	onChange func()
}

// New watches path, polling every interval. Symlinks are resolved so a
// replaced target is noticed.
func New(path string, interval time.Duration) (*FileWatcher, error) {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &FileWatcher{path: path, interval: interval, baseline: info.ModTime()}, nil
}

// Path returns the watched file.
func (w *FileWatcher) Path() string { return w.path }

// OnChange sets the callback run from Run's goroutine after each change.
func (w *FileWatcher) OnChange(fn func()) { w.onChange = fn }

// Changed reports whether the file is newer than the baseline and, if so,
// moves the baseline forward.
func (w *FileWatcher) Changed() bool {
	info, err := os.Stat(w.path)
	if err != nil || !info.ModTime().After(w.baseline) {
		return false
	}
	w.baseline = info.ModTime()
	return true
}

// Run polls until ctx is done.
func (w *FileWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.Changed() && w.onChange != nil {
				w.onChange()
			}
		}
	}
}
