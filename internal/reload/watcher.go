package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultDebounce = 250 * time.Millisecond

	rewatchInterval = 500 * time.Millisecond
	rewatchAttempts = 10
)

type Reloader interface {
	Reload(ctx context.Context) (*Report, error)
}

// Watcher triggers a reload whenever the definition file changes. Bursts of
// events within the debounce window collapse into one reload.
type Watcher struct {
	path     string
	debounce time.Duration
	reloader Reloader

	mu    sync.Mutex
	timer *time.Timer
}

func NewWatcher(path string, debounce time.Duration, r Reloader) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: abs, debounce: debounce, reloader: r}, nil
}

// Start begins watching and returns once the watch is in place. Watching
// stops when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	// Editors replace files by rename, which drops a watch on the file itself.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go w.loop(ctx, fw)
	slog.Info("watching agent definitions", "path", w.path, "debounce", w.debounce)
	return nil
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()
	defer w.stopTimer()

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
				w.schedule(ctx)
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				slog.Warn("agent definitions file removed", "path", w.path)
				go w.rewatch(ctx, fw)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Error("file watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		slog.Info("agent definitions changed, reloading", "path", w.path)
		// Failures are logged and recorded by the reloader.
		_, _ = w.reloader.Reload(ctx)
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// rewatch waits for a removed file to come back, for editors that delete
// and recreate, and for directories that were replaced wholesale.
func (w *Watcher) rewatch(ctx context.Context, fw *fsnotify.Watcher) {
	ticker := time.NewTicker(rewatchInterval)
	defer ticker.Stop()

	for range rewatchAttempts {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, err := os.Stat(w.path); err != nil {
			continue
		}
		if err := fw.Add(filepath.Dir(w.path)); err != nil {
			continue
		}
		slog.Info("agent definitions file is back", "path", w.path)
		w.schedule(ctx)
		return
	}
	slog.Warn("agent definitions file still missing, keeping current agents", "path", w.path)
}
