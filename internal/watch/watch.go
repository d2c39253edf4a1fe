// Package watch re-runs a task when files in watched directories change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/electwix/atbuilder/internal/logging"
)

// DefaultDebounce is the quiet period after the last event before the task runs.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Filter reports whether a change to the named file triggers the task; nil accepts every file.
	Filter func(name string) bool
	Logger *slog.Logger
}

// Watcher watches directories, not individual files, so editors that replace files on save are
// still seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	opts     Options
	logger   *slog.Logger
	mu       sync.Mutex
	watching map[string]bool
}

// New returns a watcher that watches nothing yet.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{fs: fsw, opts: opts, logger: logger, watching: make(map[string]bool)}, nil
}

// AddDirs starts watching dirs. Directories already watched are skipped.
func (w *Watcher) AddDirs(dirs ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if w.watching[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.watching[dir] = true
		w.logger.Debug("watching directory", "dir", dir)
	}
	return nil
}

// AddFiles watches the directories containing files.
func (w *Watcher) AddFiles(files ...string) error {
	dirs := make([]string, len(files))
	for i, f := range files {
		dirs[i] = filepath.Dir(f)
	}
	return w.AddDirs(dirs...)
}

// Run calls task after each burst of relevant changes until ctx is done. Calls to task never
// overlap. Run returns nil when ctx is done.
func (w *Watcher) Run(ctx context.Context, task func(context.Context)) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-fire:
			fire = nil
			task(ctx)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.opts.Filter == nil || w.opts.Filter(event.Name)
}
