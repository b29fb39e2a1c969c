package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long Watch waits after the last change.
const DebounceInterval = 100 * time.Millisecond

// Watch runs req once and again after every change to the source file
// until ctx is cancelled. Each run's outcome goes to report.
func (e *Engine) Watch(ctx context.Context, req ExportRequest, report func(*ExportResult, error)) error {
	source, err := filepath.Abs(req.Source)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(source)); err != nil {
		return err
	}

	report(e.Export(ctx, req))

	runs := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, err := filepath.Abs(event.Name); err != nil || name != source {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(DebounceInterval, func() {
				select {
				case runs <- struct{}{}:
				default:
				}
			})

		case <-runs:
			e.logger.Debug("source changed, exporting", "file", source)
			report(e.Export(ctx, req))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}
