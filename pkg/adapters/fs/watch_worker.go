package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/nudge/pkg/core"
)

const (
	watchDebounce   = 50 * time.Millisecond
	watchBufferSize = 100
)

// Watch reports per-note changes to the data file, whether written by this
// process or another one. The channel is closed when ctx is done.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	events := make(chan core.Event, watchBufferSize)
	w := newWatchWorker(r, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

type watchWorker struct {
	repo     *Repository
	events   chan core.Event
	watcher  *fsnotify.Watcher
	baseline core.Snapshot
}

func newWatchWorker(repo *Repository, events chan core.Event) *watchWorker {
	return &watchWorker{
		repo:   repo,
		events: events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// The data file is replaced by rename, so watch the directory rather than the inode.
	if err := watcher.Add(w.repo.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.repo.Path, err)
	}

	baseline, err := w.repo.Load(ctx)
	if err != nil {
		w.repo.config.Logger.Warn("watch started without a readable baseline", "error", err)
	}
	w.baseline = baseline
	w.watcher = watcher
	w.repo.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		w.handleError(fmt.Errorf("watcher stopped: %w", err))
	}))
	return nil
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.repo.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.repo.config.Logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.repo.config.Logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer close(w.events)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

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

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.repo.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if !w.reconcile(ctx) {
				return nil
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleError(wErr)
		}
	}
}

// relevant filters out temp files, the system directory and unrelated files.
func (w *watchWorker) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != w.repo.config.FileName {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

// reconcile reloads the snapshot and emits the difference with the baseline.
// It returns false if ctx ended while sending.
func (w *watchWorker) reconcile(ctx context.Context) bool {
	snap, err := w.repo.Load(ctx)
	if err != nil {
		w.handleError(fmt.Errorf("reconcile failed: %w", err))
		return true
	}

	for _, e := range core.Diff(w.baseline, snap, time.Now()) {
		select {
		case w.events <- e:
		case <-ctx.Done():
			return false
		}
	}
	w.baseline = snap
	return true
}

func (w *watchWorker) handleError(err error) {
	w.repo.config.Logger.Error("watcher error", "error", err)
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
	}
}
