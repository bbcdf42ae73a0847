package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"modeldeck/internal/eventbus"
	"modeldeck/internal/logging"
)

const defaultReloadDelay = 200 * time.Millisecond

// Watcher re-imports the seed file into the store whenever it changes and
// announces the result on the event bus.
type Watcher struct {
	store    *Store
	seedPath string
	bus      eventbus.EventBus
	delay    time.Duration

	fsWatcher *fsnotify.Watcher
}

// NewWatcher watches seedPath. delay debounces bursts of writes; zero means
// the default of 200ms.
func NewWatcher(store *Store, seedPath string, bus eventbus.EventBus, delay time.Duration) (*Watcher, error) {
	if seedPath == "" {
		return nil, fmt.Errorf("seed path is required")
	}
	abs, err := filepath.Abs(seedPath)
	if err != nil {
		return nil, fmt.Errorf("abs seed path: %w", err)
	}
	if delay <= 0 {
		delay = defaultReloadDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	// editors often replace the file, so watch the directory and filter
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		store:     store,
		seedPath:  abs,
		bus:       bus,
		delay:     delay,
		fsWatcher: fsw,
	}, nil
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsWatcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.seedPath {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.delay)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("catalog: watcher error", "err", err)

		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	n, err := Import(ctx, w.store, w.seedPath)
	if err != nil {
		logging.Error("catalog: reload failed", "path", w.seedPath, "err", err)
		w.bus.Publish(eventbus.ErrorEvent{Message: "seed reload failed", Err: err})
		return
	}
	logging.Info("catalog: reloaded seed", "path", w.seedPath, "models", n)
	w.bus.Publish(eventbus.CatalogReloadedEvent{SeedPath: w.seedPath, Imported: n})
}
