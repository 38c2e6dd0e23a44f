package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// watchFiles calls fire once, then again after any of paths is written,
// created or renamed over, until ctx is done. Parent directories are watched
// so editors that save by replacing the file are still seen.
func watchFiles(ctx context.Context, paths []string, fire func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	slog.Debug("watching inputs", slog.Int("files", len(targets)), slog.Int("dirs", len(dirs)))

	watchLoop(ctx, w.Events, w.Errors, targets, watchDebounce, fire)
	return nil
}

// watchLoop runs fire immediately and after every debounced burst of
// relevant events. It returns when ctx is done or a channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, targets map[string]bool, debounce time.Duration, fire func()) {
	fire()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !targets[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("input changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(debounce)
		case <-timer.C:
			fire()
		case err, ok := <-errs:
			if !ok {
				return
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}
