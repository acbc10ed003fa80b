package naivedb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the backing file and calls onChange whenever another process
// modifies it. It only notifies: no cache anywhere is updated, so an
// application composing a CachingStorage over this file decides for itself
// whether to rebuild the wrapper. The watcher stops when ctx is cancelled.
func (fs *FileStorage) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(fs.path); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", fs.path, err)
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching storage file", "path", fs.path, "err", err)
			}
		}
	}()
	return nil
}
