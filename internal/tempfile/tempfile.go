// Package tempfile allocates unique scratch paths for pipeline runs and schedules their cleanup.
package tempfile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDirName is the subdirectory of the OS temp dir used when no directory is configured
const DefaultDirName = "portfolioai"

// Allocator hands out unique writable paths under one directory.
// Each path belongs to the run that requested it; cleanup is deferred, never synchronous.
type Allocator struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*cleanup
	closed  bool
}

// cleanup is one scheduled removal
type cleanup struct {
	timer *time.Timer
}

// New creates an Allocator rooted at dir, creating the directory if needed.
// An empty dir selects <os temp>/portfolioai.
func New(dir string, logger *slog.Logger) (*Allocator, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), DefaultDirName)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory %s: %w", dir, err)
	}
	return &Allocator{
		dir:     dir,
		logger:  logger,
		pending: make(map[string]*cleanup),
	}, nil
}

// Dir returns the directory paths are allocated in
func (a *Allocator) Dir() string {
	return a.dir
}

// Path returns a fresh unique path with the given extension (".pdf", "docx", or "").
// The file is not created.
func (a *Allocator) Path(ext string) string {
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return filepath.Join(a.dir, uuid.NewString()+ext)
}

// ScheduleCleanup removes path after delay. Scheduling the same path again replaces the earlier timer.
// After Close, the file is removed immediately.
func (a *Allocator) ScheduleCleanup(path string, delay time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		a.remove(path)
		return
	}
	if c, ok := a.pending[path]; ok {
		c.timer.Stop()
	}
	c := &cleanup{}
	c.timer = time.AfterFunc(delay, func() { a.expire(path, c) })
	a.pending[path] = c
}

// expire runs when c fires. A cleanup replaced by a later ScheduleCleanup may
// still fire; it leaves the newer entry and the file alone.
func (a *Allocator) expire(path string, c *cleanup) {
	a.mu.Lock()
	if a.pending[path] != c {
		a.mu.Unlock()
		return
	}
	delete(a.pending, path)
	a.mu.Unlock()
	a.remove(path)
}

// Pending returns the number of scheduled removals that have not fired yet
func (a *Allocator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Sweep removes regular files in the allocator directory older than maxAge.
// It returns how many files were removed.
func (a *Allocator) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := Remove(filepath.Join(a.dir, entry.Name())); err != nil {
				a.logger.Warn("failed to sweep temp file", "file", entry.Name(), "error", err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// Close stops all pending timers and removes their files now
func (a *Allocator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	for path, c := range a.pending {
		c.timer.Stop()
		a.remove(path)
	}
	a.pending = make(map[string]*cleanup)
}

func (a *Allocator) remove(path string) {
	if err := Remove(path); err != nil {
		a.logger.Warn("failed to clean up temp file", "path", path, "error", err)
		return
	}
	a.logger.Debug("temp file cleaned up", "path", path)
}

// Remove deletes path. A path that no longer exists is not an error.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
