// Package diag saves intermediate pipeline images for offline inspection.
package diag

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Overlay colors.
var (
	Green = color.RGBA{G: 255, A: 255}
	Red   = color.RGBA{R: 255, A: 255}
	Gray  = color.RGBA{R: 100, G: 100, B: 100, A: 255}
)

// Sink receives named diagnostic images. Save must not retain the Mat.
type Sink interface {
	Save(name string, img gocv.Mat)
	Enabled() bool
}

// Nop discards everything.
type Nop struct{}

func (Nop) Save(string, gocv.Mat) {}
func (Nop) Enabled() bool         { return false }

// DirSink writes PNG files into a per-run directory.
type DirSink struct {
	dir    string
	runID  string
	logger *slog.Logger
}

// NewRun creates <root>/<run-id>/ and returns a sink writing into it.
func NewRun(root string, logger *slog.Logger) (*DirSink, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runID := uuid.NewString()
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}
	return &DirSink{dir: dir, runID: runID, logger: logger}, nil
}

// Dir returns the run directory.
func (s *DirSink) Dir() string { return s.dir }

// RunID returns the run identifier.
func (s *DirSink) RunID() string { return s.runID }

// Enabled reports true.
func (s *DirSink) Enabled() bool { return true }

// Save writes img as <name>.png. Failures are logged, not returned.
func (s *DirSink) Save(name string, img gocv.Mat) {
	if img.Empty() {
		return
	}
	path := filepath.Join(s.dir, name+".png")
	if ok := gocv.IMWrite(path, img); !ok {
		s.logger.Warn("failed to write debug image", "path", path)
		return
	}
	s.logger.Debug("wrote debug image", "path", path)
}

// Recorder remembers the names it was asked to save.
type Recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *Recorder) Save(name string, _ gocv.Mat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *Recorder) Enabled() bool { return true }

// Names returns the saved names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}
