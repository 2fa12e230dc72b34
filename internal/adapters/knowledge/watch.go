package knowledge

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/0xcro3dile/kbchat/internal/domain/ports"
)

// DefaultReloadDebounce collapses the burst of events a single save produces.
const DefaultReloadDebounce = 250 * time.Millisecond

// Reloader reloads a Store from its source whenever the backing file changes.
type Reloader struct {
	store    *Store
	source   ports.KnowledgeSource
	watcher  ports.FileWatcher
	path     string
	debounce time.Duration
	logger   *slog.Logger

	// OnReload, if set, is called after every reload attempt.
	OnReload func(err error)
}

// NewReloader creates a reloader for the knowledge file at path.
func NewReloader(store *Store, source ports.KnowledgeSource, watcher ports.FileWatcher, path string, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{
		store:    store,
		source:   source,
		watcher:  watcher,
		path:     path,
		debounce: DefaultReloadDebounce,
		logger:   logger,
	}
}

// Run watches the file's directory until ctx is done. Deleting the file keeps
// the last good snapshot.
func (r *Reloader) Run(ctx context.Context) error {
	events, err := r.watcher.Watch(ctx, filepath.Dir(r.path))
	if err != nil {
		return err
	}

	target := filepath.Clean(r.path)
	timer := time.NewTimer(r.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Path) != target {
				continue
			}
			if event.Operation == ports.FileDeleted {
				r.logger.Warn("Knowledge file removed, keeping current snapshot", "path", r.path)
				continue
			}
			timer.Reset(r.debounce)
		case <-timer.C:
			r.reload(ctx)
		}
	}
}

func (r *Reloader) reload(ctx context.Context) {
	err := r.store.Load(ctx, r.source)
	if err != nil {
		r.logger.Warn("Knowledge reload failed", "path", r.path, "error", err)
	} else {
		r.logger.Info("Knowledge reloaded", "path", r.path, "chunks", r.store.Len())
	}
	if r.OnReload != nil {
		r.OnReload(err)
	}
}
