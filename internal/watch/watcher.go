// Package watch triggers debounced rescans when either project tree changes
// on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for the tree to settle
// before invoking the rescan callback.
const DefaultDebounce = 500 * time.Millisecond

// Watch observes every directory under the given roots and calls cb after a
// debounced burst of file events. A GUID correspondence is a global property
// of both trees, so any change triggers a full rescan rather than an
// incremental update.
//
// New directories created at runtime are added to the watch list. Watch
// blocks until ctx is cancelled.
func Watch(ctx context.Context, roots []string, debounce time.Duration, logger *slog.Logger, cb func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
		logger.Info("watcher: started", slog.String("root", root))
	}

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			logger.Debug("watcher: triggering rescan")
			cb()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}

			// Ignore our own temp files from atomic writes.
			if isTempArtifact(filepath.Base(ev.Name)) {
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// isTempArtifact matches the temp names produced by storage's atomic writes.
func isTempArtifact(name string) bool {
	matched, _ := filepath.Match(".guidsync-tmp-*", name)
	return matched
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
