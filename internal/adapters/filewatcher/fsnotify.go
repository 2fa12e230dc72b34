// Package filewatcher provides file system monitoring adapters.
package filewatcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/kbchat/internal/domain/ports"
)

// DefaultExtensions are the knowledge file types watched when none are given.
var DefaultExtensions = []string{".json", ".db", ".sqlite"}

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	logger     *slog.Logger
}

// NewFSNotifyWatcher creates a new file watcher.
func NewFSNotifyWatcher(extensions []string, logger *slog.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: extensions,
		logger:     logger,
	}, nil
}

// Watch starts monitoring the directory and emits events.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				op, ok := toOperation(event.Op)
				if !ok {
					continue
				}

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("File watcher error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// Editors often save via rename, so Rename maps to a modification of the
// watched name.
func toOperation(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Rename):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove):
		return ports.FileDeleted, true
	}
	return 0, false
}

func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	return slices.Contains(w.extensions, filepath.Ext(path))
}
