package core

// watch.go keeps the memoized tables in step with the data file.
//
// The watcher observes the file's directory rather than the file itself so
// that editors and copy tools which replace the file (rename over it) are
// still noticed. Events are debounced; a burst of writes triggers a single
// invalidation.

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long the watcher waits after the last change event
// before invalidating.
var WatchDebounce = 200 * time.Millisecond

// Watch invalidates the cached tables whenever the data file changes.
// It blocks until ctx is cancelled. onChange, if non-nil, runs after each
// invalidation.
func (s *Service) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.path, err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	slog.Info("data watcher started", "path", target)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("data watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !affectsFile(event, target) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(WatchDebounce, func() {
				slog.Info("data file changed, invalidating cache", "path", target, "op", event.Op.String())
				s.Invalidate()
				if onChange != nil {
					onChange()
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("data watcher error", "error", err)
		}
	}
}

// affectsFile reports whether event concerns target in a way that can
// change its content.
func affectsFile(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
