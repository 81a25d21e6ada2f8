// Package watch re-runs a callback when files under a content root change.
// It watches the directory tree recursively and debounces bursts of events
// into a single trigger. It is not a dev server; the callback typically just
// re-collects and rewrites the output file.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitetree/internal/logfields"
)

// DefaultDebounce coalesces rapid editor save bursts.
const DefaultDebounce = 2 * time.Second

// Watcher monitors a content root and invokes OnChange after changes settle.
type Watcher struct {
	root     string
	onChange func(ctx context.Context)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher over root. A zero debounce uses DefaultDebounce; a
// nil logger falls back to slog.Default.
func New(root string, debounce time.Duration, logger *slog.Logger, onChange func(ctx context.Context)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}

	return &Watcher{
		root:     absRoot,
		onChange: onChange,
		watcher:  fsw,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Run watches until ctx is done. Directories created while running are
// added to the watch set as their create events arrive.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.watcher.Close()
	}()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.logger.Info("watching content root", logfields.Path(w.root))

	var timer *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// Best effort: the path may be a file or already gone.
				_ = w.addRecursive(event.Name)
			}
			w.logger.Debug("change detected", logfields.Path(event.Name))
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case <-trigger:
			timer = nil
			w.onChange(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := w.watcher.Add(p); addErr != nil {
				w.logger.Warn("cannot watch directory", logfields.Path(p), logfields.Error(addErr))
			}
		}
		return nil
	})
}

func relevant(event fsnotify.Event) bool {
	return event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Remove) ||
		event.Op.Has(fsnotify.Rename)
}
