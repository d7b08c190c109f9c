// Package watch re-runs a tool whenever the catalog file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher follows a single file. The parent directory is watched so that
// editors replacing the file by rename are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	log      zerolog.Logger
	fs       *fsnotify.Watcher
}

// New starts watching path.
func New(path string, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		log:      log,
		fs:       fsw,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)
}

// Run calls fn once per burst of changes, after the debounce interval has
// passed without further events. Calls never overlap. Run returns when ctx
// is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context)) error {
	var timer *time.Timer
	var fire <-chan time.Time

	stop := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.matches(event) {
				continue
			}
			w.log.Debug().Str("op", event.Op.String()).Msgf("Catalog event: %s", event.Name)

			// Reset debounce timer
			stop()
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			fn(ctx)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
