package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// newFileWatcher watches the directory of path, so editors that save by
// replacing the file are still seen.
func newFileWatcher(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}
	return w, nil
}

// watchLoop calls fn after every write or re-creation of path until ctx is
// done. Failures of fn are logged and watching continues.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, logger *slog.Logger, fn func() error) error {
	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("netlist changed", "path", ev.Name, "op", ev.Op.String())
			if err := fn(); err != nil {
				logger.Error("re-solve failed", "path", path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
